package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/augustoroman/v8shim"
	"github.com/augustoroman/v8shim/config"
	v8console "github.com/augustoroman/v8shim/console"
	"github.com/augustoroman/v8shim/internal/scriptsource"
	"github.com/augustoroman/v8shim/log"
	"github.com/hashicorp/go-multierror"
	"github.com/logrusorgru/aurora"
	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"
)

// runner owns one isolate and one context. Everything touching them runs on
// the goroutine that created the runner; timers hand their work back through
// tasks.
type runner struct {
	iso    *v8shim.Isolate
	scope  *v8shim.HandleScope
	ctx    *v8shim.Context
	loader *scriptsource.Loader
	log    logrus.FieldLogger
	au     aurora.Aurora
	stdout io.Writer

	tasks chan func()
	// outstanding counts tasks scheduled but not yet run.
	outstanding int
}

func newRunner(conf *config.Config, stdout, stderr io.Writer) (*runner, error) {
	timeout, err := conf.Cache.FetchTimeout()
	if err != nil {
		return nil, err
	}
	loader, err := scriptsource.New(scriptsource.Options{
		CacheDir:     conf.Cache.Dir,
		DisableCache: conf.Cache.Disable,
		Timeout:      timeout,
		Logger:       log.Sub("scripts"),
	})
	if err != nil {
		return nil, err
	}

	iso := v8shim.NewIsolate(conf.Engine)
	if err := iso.Initialize(); err != nil {
		loader.Close()
		return nil, err
	}
	colors := conf.Console.Color == "always" ||
		(conf.Console.Color == "auto" && log.IsColorTerminal(stdout))
	r := &runner{
		iso:    iso,
		scope:  iso.NewHandleScope(),
		loader: loader,
		log:    log.Sub("runner"),
		au:     aurora.NewAurora(colors),
		stdout: stdout,
		tasks:  make(chan func(), 16),
	}
	r.ctx = iso.NewContext()

	if conf.Console.Mode == "log" {
		v8console.Inject(r.ctx, v8console.LogSink{Log: log.Sub("console")})
	} else {
		v8console.Config{
			Prefix:   conf.Console.Prefix,
			Stdout:   stdout,
			Stderr:   stderr,
			Colorize: colors,
		}.Inject(r.ctx)
	}
	r.ctx.Global().Set("sleep", r.ctx.Bind("sleep", r.sleep).Value)
	return r, nil
}

// sleep returns a promise resolved with its argument after that many
// milliseconds.
func (r *runner) sleep(in v8shim.Arguments) v8shim.Value {
	if in.Len() == 0 {
		return in.Isolate().ThrowException(in.Context().NewTypeError("sleep requires duration parameter (in msec)"))
	}
	ms := in.At(0).NumberValue()
	promise, resolver := in.Context().NewPromise()
	r.schedule(time.Duration(ms*float64(time.Millisecond)), func() {
		resolver.Resolve(r.ctx.NewNumber(ms).Value)
	})
	return promise.Value
}

// schedule runs fn on the runner's goroutine once d has elapsed. It must be
// called from that goroutine.
func (r *runner) schedule(d time.Duration, fn func()) {
	r.outstanding++
	time.AfterFunc(d, func() { r.tasks <- fn })
}

// runTask runs one scheduled task followed by the promise reactions it
// triggered.
func (r *runner) runTask(fn func()) error {
	r.outstanding--
	scope := r.iso.NewHandleScope()
	defer scope.Close()
	tc := r.iso.NewTryCatch()
	defer tc.Close()
	fn()
	r.ctx.RunMicrotasks()
	return tc.Error()
}

// wait runs tasks until none is outstanding. A task that schedules another
// one keeps the loop going.
func (r *runner) wait() error {
	for r.outstanding > 0 {
		if err := r.runTask(<-r.tasks); err != nil {
			return err
		}
	}
	return nil
}

// runReady runs the tasks that are already due without blocking.
func (r *runner) runReady() error {
	for {
		select {
		case fn := <-r.tasks:
			if err := r.runTask(fn); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (r *runner) exec(name, code string) (string, error) {
	scope := r.iso.NewHandleScope()
	defer scope.Close()
	res, err := r.ctx.Eval(code, name)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// runAll loads and runs each script in order, then waits for outstanding
// timers.
func (r *runner) runAll(ctx context.Context, refs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, ref := range refs {
		src, err := r.loader.Load(ctx, ref)
		if err != nil {
			return err
		}
		r.log.WithFields(logrus.Fields{"script": src.Name, "cached": src.Cached}).Debug("running script")
		if _, err := r.exec(src.Name, src.Code); err != nil {
			return err
		}
	}
	return r.wait()
}

func (r *runner) repl() error {
	s := liner.NewLiner()
	s.SetMultiLineMode(true)
	s.SetCtrlCAborts(true)
	defer s.Close()
	for {
		if err := r.runReady(); err != nil {
			fmt.Fprintln(r.stdout, r.au.Red(err))
		}
		jscode, err := s.Prompt("> ")
		if err == io.EOF {
			break
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}
		s.AppendHistory(jscode)
		result, err := r.exec("<input>", jscode)
		if err != nil {
			fmt.Fprintln(r.stdout, r.au.Red(err))
		} else {
			fmt.Fprintln(r.stdout, result)
		}
	}
	fmt.Fprintln(r.stdout)
	return r.wait()
}

// terminate stops the running script. It may be called from any goroutine.
func (r *runner) terminate() {
	r.ctx.Terminate()
}

func (r *runner) close() error {
	var result *multierror.Error
	r.scope.Close()
	if err := r.iso.Dispose(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := r.loader.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
