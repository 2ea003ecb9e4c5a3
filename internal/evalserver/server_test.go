package evalserver

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/chess-coach/internal/engine"
	"github.com/park285/chess-coach/internal/engine/uci"
	"github.com/park285/chess-coach/internal/engine/uci/ucitest"
	"github.com/park285/chess-coach/internal/evalclient"
)

type fakeAnalyzer struct {
	eval engine.Evaluation
	err  error
	fens []string
}

func (f *fakeAnalyzer) Evaluate(_ context.Context, fen string) (engine.Evaluation, error) {
	f.fens = append(f.fens, fen)
	return f.eval, f.err
}

func serve(t *testing.T, a Analyzer) func(string) (net.Conn, error) {
	t.Helper()
	srv, err := New(a, Config{RequestTimeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = ln.Close()
	})
	return func(string) (net.Conn, error) { return ln.Dial() }
}

func do(t *testing.T, dial func(string) (net.Conn, error), method, path, body string) (int, string, string) {
	t.Helper()
	c := &fasthttp.Client{Dial: dial}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.Header.SetMethod(method)
	req.SetRequestURI("http://eval.test" + path)
	if body != "" {
		req.SetBodyString(body)
	}
	if err := c.DoTimeout(req, resp, 5*time.Second); err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp.StatusCode(), string(resp.Body()), string(resp.Header.Peek(requestIDHeader))
}

func TestEvaluate_OK(t *testing.T) {
	a := &fakeAnalyzer{eval: engine.Evaluation{Score: 18, BestMove: "g1f3", PV: []string{"g1f3", "b8c6"}, Depth: 10}}
	dial := serve(t, a)

	status, body, reqID := do(t, dial, fasthttp.MethodPost, "/evaluate", `{"fen":" 8/8/8/8/8/8/k7/7K w - - 0 1 "}`)
	if status != fasthttp.StatusOK {
		t.Fatalf("status = %d body=%s", status, body)
	}
	want := `{"eval":18,"bestMove":"g1f3","pv":["g1f3","b8c6"],"depth":10}`
	if body != want {
		t.Fatalf("body = %s", body)
	}
	if reqID == "" {
		t.Fatalf("missing request id header")
	}
	if diff := cmp.Diff([]string{"8/8/8/8/8/8/k7/7K w - - 0 1"}, a.fens); diff != "" {
		t.Fatalf("fen mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_TerminalPositionHasEmptyPV(t *testing.T) {
	dial := serve(t, &fakeAnalyzer{eval: engine.Evaluation{Score: 0}})
	_, body, _ := do(t, dial, fasthttp.MethodPost, "/evaluate", `{"fen":"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"}`)
	if body != `{"eval":0,"bestMove":"","pv":[]}` {
		t.Fatalf("body = %s", body)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		body   string
		status int
		code   string
	}{
		{name: "bad json", body: `{`, status: 400, code: "bad_request"},
		{name: "missing fen", body: `{}`, status: 400, code: "bad_request"},
		{name: "invalid fen", body: `{"fen":"x"}`, err: engine.ErrInvalidPosition, status: 400, code: "invalid_position"},
		{name: "timeout", body: `{"fen":"x"}`, err: engine.ErrEngineTimeout, status: 503, code: "engine_timeout"},
		{name: "unavailable", body: `{"fen":"x"}`, err: errors.New("boom"), status: 503, code: "engine_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dial := serve(t, &fakeAnalyzer{err: tc.err})
			status, body, _ := do(t, dial, fasthttp.MethodPost, "/evaluate", tc.body)
			if status != tc.status || !strings.Contains(body, `"code":"`+tc.code+`"`) {
				t.Fatalf("status=%d body=%s", status, body)
			}
		})
	}
}

func TestRouting(t *testing.T) {
	dial := serve(t, &fakeAnalyzer{})
	if status, body, _ := do(t, dial, fasthttp.MethodGet, "/healthz", ""); status != 200 || body != "ok" {
		t.Fatalf("healthz = %d %q", status, body)
	}
	if status, _, _ := do(t, dial, fasthttp.MethodGet, "/evaluate", ""); status != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("GET /evaluate = %d", status)
	}
	if status, _, _ := do(t, dial, fasthttp.MethodGet, "/nope", ""); status != fasthttp.StatusNotFound {
		t.Fatalf("unknown path = %d", status)
	}
}

func TestClientAgainstEngine(t *testing.T) {
	pool, err := uci.NewPool(uci.PoolConfig{BinaryPath: ucitest.Engine(t), Capacity: 1, Options: uci.Options{Threads: 1, HashMB: 16, MultiPV: 1}})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	analyzer, err := engine.NewAnalyzer(pool, uci.Limits{Depth: 8}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	t.Cleanup(func() { _ = analyzer.Close() })

	client := evalclient.NewClient("http://eval.test", evalclient.WithDial(serve(t, analyzer)))
	got, err := client.Evaluate(context.Background(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := &evalclient.Evaluation{Score: -34, BestMove: "e7e5", PV: []string{"e7e5", "g1f3", "b8c6"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("evaluation mismatch (-want +got):\n%s", diff)
	}
	if err := client.Healthy(context.Background()); err != nil {
		t.Fatalf("Healthy: %v", err)
	}
}
