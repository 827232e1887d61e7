package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tetratelabs/wazero"

	"github.com/sorcio/wotto/domain/entities"
	domainerrors "github.com/sorcio/wotto/domain/errors"
	"github.com/sorcio/wotto/guest"
	"github.com/sorcio/wotto/guest/faultinject"
	"github.com/sorcio/wotto/hostfuncs"
	wazeroadapter "github.com/sorcio/wotto/infrastructure/wazero"
	"github.com/sorcio/wotto/internal/testutil"
	"github.com/sorcio/wotto/internal/wasmgen"
)

const clock = "\xf0\x9f\x95\x90"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	ctx := context.Background()
	e, err := NewExecutor(ctx, append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, e.Close(ctx)) })
	return e
}

// ExecutorSuite runs invocations against an executor with fault injection
// enabled and the test guest loaded as "guest".
type ExecutorSuite struct {
	suite.Suite
	ctx      context.Context
	executor *Executor
	diag     bytes.Buffer
}

func (s *ExecutorSuite) SetupTest() {
	s.ctx = context.Background()
	s.diag.Reset()

	cfg := entities.NewConfig(
		entities.WithTimeout(2*time.Second),
		entities.WithFaultInjection(true),
	)
	e, err := NewExecutor(s.ctx,
		WithConfig(cfg),
		WithLogger(quietLogger()),
		WithDiagnostics(hostfuncs.NewStreamDiagnostics(&s.diag)),
	)
	s.Require().NoError(err)
	s.executor = e
	s.Require().NoError(e.LoadModule(s.ctx, "guest", testutil.GuestModule("wotto", 64)))
}

func (s *ExecutorSuite) TearDownTest() {
	s.NoError(s.executor.Close(s.ctx))
}

func (s *ExecutorSuite) invoke(entry, input string) *entities.Result {
	res, err := s.executor.Invoke(s.ctx, entry, []byte(input))
	s.Require().NoError(err)
	return res
}

func (s *ExecutorSuite) invokeModule(module, entry, input string) *entities.Result {
	res, err := s.executor.InvokeModule(s.ctx, module, entry, []byte(input))
	s.Require().NoError(err)
	return res
}

func (s *ExecutorSuite) TestReverse() {
	testutil.AssertCompleted(s.T(), s.invoke("rev", "abc"), "cba")
	testutil.AssertCompleted(s.T(), s.invoke("rev", clock+"cba"), "abc"+clock)
}

func (s *ExecutorSuite) TestCodepoints() {
	res := s.invoke("cp", "A€")
	testutil.AssertCompleted(s.T(), res, "65 8364")
	s.Equal("cp", res.Entry)
	s.Empty(res.Module)
	s.Equal("out: '65'\nout: ' '\nout: '8364'\n", s.diag.String())
}

func (s *ExecutorSuite) TestNativeCrashIsContained() {
	trap := testutil.AssertFaulted(s.T(), s.invoke("crash", "x"), domainerrors.ReasonPanic)
	s.Equal("crash", trap.Entry)
	s.Contains(trap.Error(), "index out of range")

	testutil.AssertCompleted(s.T(), s.invoke("rev", "abc"), "cba")
}

func (s *ExecutorSuite) TestWasmCrashIsContained() {
	trap := testutil.AssertFaulted(s.T(), s.invokeModule(faultinject.ModuleName, "crash", ""), domainerrors.ReasonTrap)
	s.Equal("faultinject.crash", trap.Entry)
	s.Contains(trap.Error(), "out of bounds memory access")

	testutil.AssertCompleted(s.T(), s.invokeModule("guest", "echo", "still here"), "still here")
}

func (s *ExecutorSuite) TestUnreachableTraps() {
	trap := testutil.AssertFaulted(s.T(), s.invokeModule("guest", "unreach", ""), domainerrors.ReasonTrap)
	s.Contains(trap.Error(), "unreachable")
}

func (s *ExecutorSuite) TestBadPointerTraps() {
	trap := testutil.AssertFaulted(s.T(), s.invokeModule("guest", "badptr", ""), domainerrors.ReasonTrap)

	var memErr *wazeroadapter.MemoryAccessError
	s.True(errors.As(trap, &memErr), "got %v", trap)
}

func (s *ExecutorSuite) TestWasmEcho() {
	res := s.invokeModule("guest", "echo", "héllo "+clock)
	testutil.AssertCompleted(s.T(), res, "héllo "+clock)
	s.Equal("guest", res.Module)
	s.Equal("echo", res.Entry)
	s.Greater(res.Duration, time.Duration(0))
}

func (s *ExecutorSuite) TestWritesAccumulate() {
	testutil.AssertCompleted(s.T(), s.invokeModule("guest", "twice", "ab"), "abab")
	s.Equal("out: 'ab'\nout: 'ab'\n", s.diag.String())
}

func (s *ExecutorSuite) TestNoStateLeaksBetweenInvocations() {
	testutil.AssertCompleted(s.T(), s.invokeModule("guest", "echo", "first"), "first")

	res := s.invokeModule("guest", "silent", "second")
	testutil.AssertCompleted(s.T(), res, "")
	s.Nil(res.Output)

	testutil.AssertCompleted(s.T(), s.invoke("cp", ""), "")
}

func (s *ExecutorSuite) TestDispatchErrors() {
	_, err := s.executor.Invoke(s.ctx, "nope", nil)
	var nf *domainerrors.NotFoundError
	s.Require().True(errors.As(err, &nf))
	s.Equal("entry point", nf.Kind)

	_, err = s.executor.InvokeModule(s.ctx, "nope", "echo", nil)
	s.Require().True(errors.As(err, &nf))
	s.Equal("module", nf.Kind)

	_, err = s.executor.InvokeModule(s.ctx, "guest", "missing", nil)
	s.Require().True(errors.As(err, &nf))
	s.Equal("guest.missing", nf.Name)

	_, err = s.executor.InvokeModule(s.ctx, "guest", "add", nil)
	var sig *domainerrors.SignatureError
	s.Require().True(errors.As(err, &sig))
	s.Equal(1, sig.Params)
	s.Equal(0, sig.Results)
}

func (s *ExecutorSuite) TestListing() {
	s.Equal([]string{"cp", "crash", "rev", "spin"}, s.executor.EntryPoints())
	s.Equal([]string{faultinject.ModuleName, "guest"}, s.executor.Modules())

	exports, err := s.executor.ModuleEntryPoints("guest")
	s.Require().NoError(err)
	s.Equal([]string{"badptr", "echo", "silent", "twice", "unreach"}, exports)

	_, err = s.executor.ModuleEntryPoints("nope")
	s.Error(err)
}

func (s *ExecutorSuite) TestReloadReplacesModule() {
	s.Require().NoError(s.executor.LoadModule(s.ctx, "guest", testutil.GuestModule("wotto", 2)))
	s.Equal([]string{faultinject.ModuleName, "guest"}, s.executor.Modules())

	testutil.AssertCompleted(s.T(), s.invokeModule("guest", "echo", "abcdef"), "ab")
}

func (s *ExecutorSuite) TestReloadKeepsHeldModuleOpen() {
	held, err := s.executor.acquire("guest")
	s.Require().NoError(err)

	s.Require().NoError(s.executor.LoadModule(s.ctx, "guest", testutil.GuestModule("wotto", 2)))
	s.True(held.retired)
	s.False(held.closed, "module closed while an invocation holds it")

	// The replaced module still instantiates for the invocation holding it.
	ctx := wazeroadapter.WithChannel(s.ctx, hostfuncs.NewChannel())
	mod, err := s.executor.runtime.InstantiateModule(ctx, held.compiled, wazero.NewModuleConfig().WithName(""))
	s.Require().NoError(err)
	s.Require().NoError(mod.Close(ctx))

	s.executor.release(s.ctx, held)
	s.True(held.closed)

	current, err := s.executor.acquire("guest")
	s.Require().NoError(err)
	defer s.executor.release(s.ctx, current)
	s.NotSame(held, current)
	s.False(current.closed)
}

func (s *ExecutorSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res, err := s.executor.Invoke(ctx, "spin", nil)
	s.Require().NoError(err)
	testutil.AssertFaulted(s.T(), res, domainerrors.ReasonCanceled)
}

func TestExecutorSuite(t *testing.T) {
	suite.Run(t, new(ExecutorSuite))
}

func TestExecutor_Timeout(t *testing.T) {
	e := newExecutor(t, WithConfig(entities.NewConfig(
		entities.WithTimeout(50*time.Millisecond),
		entities.WithFaultInjection(true),
	)))
	ctx := context.Background()

	t.Run("wasm", func(t *testing.T) {
		res, err := e.InvokeModule(ctx, faultinject.ModuleName, "spin", nil)
		require.NoError(t, err)
		trap := testutil.AssertFaulted(t, res, domainerrors.ReasonTimeout)
		assert.True(t, trap.Timeout())

		var timeout *domainerrors.TimeoutError
		require.True(t, errors.As(trap, &timeout))
		assert.Equal(t, 50*time.Millisecond, timeout.Duration)
		assert.Equal(t, "faultinject.spin", timeout.Target)
	})

	t.Run("native", func(t *testing.T) {
		res, err := e.Invoke(ctx, "spin", nil)
		require.NoError(t, err)
		testutil.AssertFaulted(t, res, domainerrors.ReasonTimeout)
	})

	t.Run("host still usable", func(t *testing.T) {
		res, err := e.Invoke(ctx, "rev", []byte("ok"))
		require.NoError(t, err)
		testutil.AssertCompleted(t, res, "ko")
	})
}

func TestExecutor_FaultInjectionOffByDefault(t *testing.T) {
	e := newExecutor(t)

	_, err := e.Invoke(context.Background(), "crash", nil)
	var nf *domainerrors.NotFoundError
	require.True(t, errors.As(err, &nf))

	assert.Equal(t, []string{"cp", "rev"}, e.EntryPoints())
	assert.Empty(t, e.Modules())
}

func TestExecutor_Truncation(t *testing.T) {
	e := newExecutor(t, WithConfig(entities.NewConfig(entities.WithCapacity(8))))
	ctx := context.Background()

	res, err := e.Invoke(ctx, "rev", []byte("abcdefghij"))
	require.NoError(t, err)
	testutil.AssertCompleted(t, res, "hgfedcba")
	assert.True(t, res.InputTruncated)
	assert.False(t, res.OutputTruncated)

	res, err = e.Invoke(ctx, "cp", []byte("ABCD"))
	require.NoError(t, err)
	testutil.AssertCompleted(t, res, "65 66 67")
	assert.False(t, res.InputTruncated)
	assert.True(t, res.OutputTruncated)
}

func writeRaw(data string) guest.EntryPoint {
	return func(_ context.Context, abi guest.ABI) error {
		abi.Write([]byte(data))
		return nil
	}
}

func TestExecutor_SanitizeOutput(t *testing.T) {
	bundle := guest.StaticBundle{"raw": writeRaw("ab\xff")}

	raw := newExecutor(t, WithBundle(bundle))
	res, err := raw.Invoke(context.Background(), "raw", nil)
	require.NoError(t, err)
	testutil.AssertCompleted(t, res, "ab\xff")

	clean := newExecutor(t, WithBundle(bundle), WithConfig(entities.NewConfig(entities.WithSanitizeOutput(true))))
	res, err = clean.Invoke(context.Background(), "raw", nil)
	require.NoError(t, err)
	testutil.AssertCompleted(t, res, "ab�")
}

func TestExecutor_EntryErrorAborts(t *testing.T) {
	failing := func(_ context.Context, abi guest.ABI) error {
		abi.Write([]byte("partial"))
		return fmt.Errorf("cannot continue")
	}
	e := newExecutor(t, WithBundle(guest.StaticBundle{"fail": failing}))

	res, err := e.Invoke(context.Background(), "fail", nil)
	require.NoError(t, err)
	trap := testutil.AssertFaulted(t, res, domainerrors.ReasonAbort)
	assert.Contains(t, trap.Error(), "cannot continue")

	res, err = e.Invoke(context.Background(), "rev", []byte("a\x80"))
	require.NoError(t, err)
	testutil.AssertFaulted(t, res, domainerrors.ReasonAbort)
}

func TestExecutor_CustomRegistry(t *testing.T) {
	reg, err := guest.NewRegistry(guest.WithEntryPoint("hello", writeRaw("hi")))
	require.NoError(t, err)

	e := newExecutor(t, WithRegistry(reg))
	assert.Equal(t, []string{"hello"}, e.EntryPoints())

	res, err := e.Invoke(context.Background(), "hello", nil)
	require.NoError(t, err)
	testutil.AssertCompleted(t, res, "hi")
}

func TestExecutor_CustomRegistryPanicIsContained(t *testing.T) {
	boom := func(context.Context, guest.ABI) error {
		var m map[string]int
		m["boom"] = 1
		return nil
	}
	reg, err := guest.NewRegistry(
		guest.WithEntryPoint("boom", boom),
		guest.WithEntryPoint("hello", writeRaw("hi")),
	)
	require.NoError(t, err)

	e := newExecutor(t, WithRegistry(reg))
	ctx := context.Background()

	var res *entities.Result
	require.NotPanics(t, func() {
		res, err = e.Invoke(ctx, "boom", []byte("x"))
	})
	require.NoError(t, err)
	trap := testutil.AssertFaulted(t, res, domainerrors.ReasonPanic)
	assert.Equal(t, "boom", trap.Entry)
	assert.NotEmpty(t, trap.Stack)

	res, err = e.Invoke(ctx, "hello", nil)
	require.NoError(t, err)
	testutil.AssertCompleted(t, res, "hi")
}

func TestExecutor_ProcExit(t *testing.T) {
	exitWith := func(code int32) []byte {
		return new(wasmgen.Code).I32Const(code).Call(0).Bytes()
	}
	m := &wasmgen.Module{
		Types: []wasmgen.FuncType{{Params: []wasmgen.ValType{wasmgen.I32}}, {}},
		Imports: []wasmgen.Import{
			{Module: "wasi_snapshot_preview1", Name: "proc_exit", Type: 0},
		},
		Funcs: []wasmgen.Func{
			{Type: 1, Export: "ok", Body: exitWith(0)},
			{Type: 1, Export: "fail", Body: exitWith(3)},
		},
		MemoryPages:  1,
		MemoryExport: "memory",
	}

	e := newExecutor(t)
	ctx := context.Background()
	require.NoError(t, e.LoadModule(ctx, "exiter", m.Encode()))

	res, err := e.InvokeModule(ctx, "exiter", "ok", nil)
	require.NoError(t, err)
	testutil.AssertCompleted(t, res, "")

	res, err = e.InvokeModule(ctx, "exiter", "fail", nil)
	require.NoError(t, err)
	testutil.AssertFaulted(t, res, domainerrors.ReasonExit)
}

func TestExecutor_AssemblyScriptAbort(t *testing.T) {
	e := newExecutor(t, WithConfig(entities.NewConfig(entities.WithAssemblyScript(true))))
	ctx := context.Background()
	require.NoError(t, e.LoadModule(ctx, "as", testutil.ASModule("wotto")))

	res, err := e.InvokeModule(ctx, "as", "hello", nil)
	require.NoError(t, err)
	testutil.AssertCompleted(t, res, "")

	res, err = e.InvokeModule(ctx, "as", "fail", nil)
	require.NoError(t, err)
	trap := testutil.AssertFaulted(t, res, domainerrors.ReasonAbort)
	assert.Contains(t, trap.Error(), "guest aborted: hi at hi:7:3")
}

func TestExecutor_ConcurrentInvocations(t *testing.T) {
	e := newExecutor(t, WithConfig(entities.NewConfig(entities.WithConcurrency(4))))
	ctx := context.Background()
	require.NoError(t, e.LoadModule(ctx, "guest", testutil.GuestModule("wotto", 64)))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := strings.Repeat(fmt.Sprint(i%10), i+1)
			res, err := e.InvokeModule(ctx, "guest", "echo", []byte(input))
			if err != nil {
				errs <- err
				return
			}
			if string(res.Output) != input {
				errs <- fmt.Errorf("invocation %d: got %q, want %q", i, res.Output, input)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestExecutor_InvalidConfig(t *testing.T) {
	cfg := entities.DefaultConfig()
	cfg.Capacity = 0

	_, err := NewExecutor(context.Background(), WithConfig(cfg))
	var cfgErr *domainerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "capacity", cfgErr.Field)
}

func TestExecutor_LoadModuleErrors(t *testing.T) {
	e := newExecutor(t)
	ctx := context.Background()

	assert.Error(t, e.LoadModule(ctx, "bad-name", testutil.GuestModule("wotto", 8)))
	assert.Error(t, e.LoadModule(ctx, "garbage", []byte("not wasm")))
	assert.Empty(t, e.Modules())
}

func TestExecutor_LoadModuleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my_guest.wasm")
	require.NoError(t, os.WriteFile(path, testutil.GuestModule("wotto", 16), 0o600))

	e := newExecutor(t)
	name, err := e.LoadModuleFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "my_guest", name)
	assert.Equal(t, []string{"my_guest"}, e.Modules())

	_, err = e.LoadModuleFile(context.Background(), filepath.Join(dir, "missing.wasm"))
	assert.Error(t, err)
}

func TestExecutor_LoadModuleURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gists/raw/web_guest.wasm", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(testutil.GuestModule("wotto", 16))
	})
	mux.HandleFunc("/gists/raw/bad-name.wasm", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(testutil.GuestModule("wotto", 16))
	})
	mux.HandleFunc("/gists/raw/broken.wasm", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("\x00asm\x01\x00\x00\x00\xff"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	e := newExecutor(t, WithConfig(entities.NewConfig(entities.WithAllowedOrigins(srv.URL))))
	ctx := context.Background()

	name, err := e.LoadModuleURL(ctx, srv.URL+"/gists/raw/web_guest.wasm")
	require.NoError(t, err)
	assert.Equal(t, "web_guest", name)

	res, err := e.InvokeModule(ctx, "web_guest", "echo", []byte("fetched"))
	require.NoError(t, err)
	testutil.AssertCompleted(t, res, "fetched")

	tests := []struct {
		name string
		url  string
		want domainerrors.WebLoadReason
	}{
		{"rejected origin", "https://example.com/web_guest.wasm", domainerrors.ReasonRejected},
		{"credentials", strings.Replace(srv.URL, "://", "://user:pw@", 1) + "/gists/raw/web_guest.wasm", domainerrors.ReasonCredentials},
		{"invalid name", srv.URL + "/gists/raw/bad-name.wasm", domainerrors.ReasonInvalidPath},
		{"no file", srv.URL + "/", domainerrors.ReasonInvalidPath},
		{"missing", srv.URL + "/gists/raw/missing.wasm", domainerrors.ReasonFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.LoadModuleURL(ctx, tt.url)
			var webErr *domainerrors.WebLoadError
			require.True(t, errors.As(err, &webErr), "expected *WebLoadError, got %v", err)
			assert.Equal(t, tt.want, webErr.Reason)
		})
	}

	_, err = e.LoadModuleURL(ctx, srv.URL+"/gists/raw/broken.wasm")
	assert.ErrorContains(t, err, "failed to compile module broken")
	assert.Equal(t, []string{"web_guest"}, e.Modules())
}

func TestExecutor_LoadModuleURLDisabledByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(testutil.GuestModule("wotto", 16))
	}))
	t.Cleanup(srv.Close)

	e := newExecutor(t)
	_, err := e.LoadModuleURL(context.Background(), srv.URL+"/guest.wasm")
	var webErr *domainerrors.WebLoadError
	require.True(t, errors.As(err, &webErr))
	assert.Equal(t, domainerrors.ReasonRejected, webErr.Reason)
	assert.Empty(t, e.Modules())
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"examples/rev.wasm", "rev", false},
		{"/abs/path/hello_world.wasm", "hello_world", false},
		{"noext", "noext", false},
		{"dir/bad-name.wasm", "", true},
		{"dir/.wasm", "", true},
		{"dir/1st.wasm", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := CanonicalName(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
