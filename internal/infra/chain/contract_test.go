package chain

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dtrann/healthseal/internal/core/domain"
	"github.com/dtrann/healthseal/internal/infra/rpc"
)

type fakeNode struct {
	t        *testing.T
	handlers map[string]func(params []json.RawMessage) (any, *rpc.Error)
	calls    map[string]*int32
}

func newFakeNode(t *testing.T) *fakeNode {
	return &fakeNode{
		t:        t,
		handlers: make(map[string]func([]json.RawMessage) (any, *rpc.Error)),
		calls:    make(map[string]*int32),
	}
}

func (f *fakeNode) on(method string, fn func(params []json.RawMessage) (any, *rpc.Error)) {
	f.handlers[method] = fn
	var n int32
	f.calls[method] = &n
}

func (f *fakeNode) count(method string) int32 {
	if c, ok := f.calls[method]; ok {
		return atomic.LoadInt32(c)
	}
	return 0
}

func (f *fakeNode) serve() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     any               `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("bad request: %v", err)
			return
		}
		h, ok := f.handlers[req.Method]
		if !ok {
			f.t.Errorf("unexpected method %s", req.Method)
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"error": map[string]any{"code": -32601, "message": "method not found"},
			})
			return
		}
		atomic.AddInt32(f.calls[req.Method], 1)
		result, rpcErr := h(req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func word(v uint64) []byte {
	w := make([]byte, 32)
	binary.BigEndian.PutUint64(w[24:], v)
	return w
}

func testContract(url string) *Contract {
	return NewContract(
		rpc.NewClient(rpc.Config{URL: url, Timeout: domain.Duration(2 * time.Second)}),
		Config{
			Address:        "0xc0ffee",
			Account:        "0xacc0",
			PollInterval:   domain.Duration(5 * time.Millisecond),
			ConfirmTimeout: domain.Duration(time.Second),
		},
	)
}

func TestIsDeployed(t *testing.T) {
	node := newFakeNode(t)
	code := "0x6080"
	node.on("eth_getCode", func([]json.RawMessage) (any, *rpc.Error) {
		return code, nil
	})
	srv := node.serve()
	defer srv.Close()

	c := testContract(srv.URL)
	ok, err := c.IsDeployed(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected deployed, got %v %v", ok, err)
	}

	code = "0x"
	ok, err = c.IsDeployed(context.Background())
	if err != nil || ok {
		t.Fatalf("empty code should mean not deployed, got %v %v", ok, err)
	}
}

func TestSubmitCheck_EncodesCall(t *testing.T) {
	node := newFakeNode(t)
	var gotData string
	node.on("eth_sendTransaction", func(params []json.RawMessage) (any, *rpc.Error) {
		var tx map[string]string
		if err := json.Unmarshal(params[0], &tx); err != nil {
			t.Fatalf("bad tx param: %v", err)
		}
		if tx["from"] != "0xacc0" || tx["to"] != "0xc0ffee" {
			t.Errorf("wrong from/to: %+v", tx)
		}
		gotData = tx["data"]
		return "0xhash1", nil
	})
	srv := node.serve()
	defer srv.Close()

	c := testContract(srv.URL)
	input := domain.EncryptedInput{Proof: []byte{0xde, 0xad}}
	input.Handle[0] = 0x11

	hash, err := c.SubmitCheck(context.Background(), 3, input)
	if err != nil {
		t.Fatalf("SubmitCheck failed: %v", err)
	}
	if hash != "0xhash1" {
		t.Errorf("hash = %s", hash)
	}

	raw, err := hex.DecodeString(gotData[2:])
	if err != nil {
		t.Fatalf("data not hex: %v", err)
	}
	// selector + metric word + handle word + offset + len + payload
	if len(raw) != 4+5*32 {
		t.Fatalf("calldata length %d", len(raw))
	}
	if raw[4+31] != 3 {
		t.Errorf("metric id word wrong: %x", raw[4:36])
	}
	if raw[4+32] != 0x11 {
		t.Errorf("handle word wrong: %x", raw[36:68])
	}
}

func TestWaitMined_PendingThenConfirmed(t *testing.T) {
	node := newFakeNode(t)
	var polls int32
	node.on("eth_getTransactionReceipt", func([]json.RawMessage) (any, *rpc.Error) {
		if atomic.AddInt32(&polls, 1) < 3 {
			return nil, nil
		}
		return map[string]string{"status": "0x1", "blockNumber": "0x10"}, nil
	})
	srv := node.serve()
	defer srv.Close()

	c := testContract(srv.URL)
	if err := c.WaitMined(context.Background(), "0xabc"); err != nil {
		t.Fatalf("WaitMined failed: %v", err)
	}
	if atomic.LoadInt32(&polls) != 3 {
		t.Errorf("expected 3 polls, got %d", polls)
	}
}

func TestWaitMined_Reverted(t *testing.T) {
	node := newFakeNode(t)
	node.on("eth_getTransactionReceipt", func([]json.RawMessage) (any, *rpc.Error) {
		return map[string]string{"status": "0x0", "blockNumber": "0x10"}, nil
	})
	srv := node.serve()
	defer srv.Close()

	c := testContract(srv.URL)
	err := c.WaitMined(context.Background(), "0xabc")
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
}

func TestResultHandle(t *testing.T) {
	node := newFakeNode(t)
	node.on("eth_call", func(params []json.RawMessage) (any, *rpc.Error) {
		h := make([]byte, 32)
		h[0] = 0xfe
		return "0x" + hex.EncodeToString(h), nil
	})
	srv := node.serve()
	defer srv.Close()

	c := testContract(srv.URL)
	h, err := c.ResultHandle(context.Background(), 1)
	if err != nil {
		t.Fatalf("ResultHandle failed: %v", err)
	}
	if h[0] != 0xfe || h.IsZero() {
		t.Errorf("handle mangled: %x", h)
	}
}

func TestMetricRanges(t *testing.T) {
	// Build the ABI return for two metrics by hand.
	ids := []uint64{0, 1}
	mins := []uint64{30, 70}
	maxs := []uint64{220, 250}
	units := []string{"bpm", "mmHg"}
	descs := []string{"Resting heart rate", "Systolic arterial pressure"}

	uintArray := func(vals []uint64) []byte {
		out := word(uint64(len(vals)))
		for _, v := range vals {
			out = append(out, word(v)...)
		}
		return out
	}
	stringArray := func(vals []string) []byte {
		body := word(uint64(len(vals)))
		var tail []byte
		base := uint64(len(vals) * 32)
		for _, s := range vals {
			body = append(body, word(base+uint64(len(tail)))...)
			tail = append(tail, word(uint64(len(s)))...)
			b := []byte(s)
			if rem := len(b) % 32; rem != 0 {
				b = append(b, make([]byte, 32-rem)...)
			}
			tail = append(tail, b...)
		}
		return append(body, tail...)
	}

	tails := [][]byte{
		uintArray(ids), uintArray(mins), uintArray(maxs),
		stringArray(units), stringArray(descs),
	}
	var head, tail []byte
	base := uint64(5 * 32)
	for _, tl := range tails {
		head = append(head, word(base+uint64(len(tail)))...)
		tail = append(tail, tl...)
	}
	ret := "0x" + hex.EncodeToString(append(head, tail...))

	node := newFakeNode(t)
	node.on("eth_call", func(params []json.RawMessage) (any, *rpc.Error) {
		return ret, nil
	})
	srv := node.serve()
	defer srv.Close()

	c := testContract(srv.URL)
	ranges, err := c.MetricRanges(context.Background())
	if err != nil {
		t.Fatalf("MetricRanges failed: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	want := []MetricRange{
		{ID: 0, Min: 30, Max: 220, Unit: "bpm", Description: "Resting heart rate"},
		{ID: 1, Min: 70, Max: 250, Unit: "mmHg", Description: "Systolic arterial pressure"},
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, ranges[i], want[i])
		}
	}
	if node.count("eth_call") != 1 {
		t.Errorf("expected single eth_call, got %d", node.count("eth_call"))
	}
}
