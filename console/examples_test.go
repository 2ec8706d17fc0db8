package v8console_test

import (
	"os"

	"github.com/augustoroman/v8shim"
	"github.com/augustoroman/v8shim/console"
)

func ExampleBuffer() {
	iso := v8shim.NewIsolate(v8shim.Config{})
	iso.Initialize()
	defer iso.Dispose()
	scope := iso.NewHandleScope()
	defer scope.Close()
	ctx := iso.NewContext()

	// Record everything logged while the scripts initialize, then replay it
	// once the real console is known.
	var buf v8console.Buffer
	v8console.Inject(ctx, &buf)
	ctx.Eval(`
        function renderPage(name) { return "<html><body>Hi " + name + "!"; }
        console.warn('initialization');
    `, "init.js")

	console := v8console.Config{"console> ", os.Stdout, os.Stdout, false}
	console.Inject(ctx)
	buf.Flush(console)
	ctx.Eval(`console.warn('after init');`, `somefile.js`)

	// Output:
	// console> [init.js:3] initialization
	// console> [somefile.js:1] after init
}

func ExampleConfig() {
	iso := v8shim.NewIsolate(v8shim.Config{})
	iso.Initialize()
	defer iso.Dispose()
	scope := iso.NewHandleScope()
	defer scope.Close()
	ctx := iso.NewContext()

	v8console.Config{"> ", os.Stdout, os.Stdout, false}.Inject(ctx)
	ctx.Eval(`
        console.log('hi there');
        console.info('info', 4, 'u');
        console.warn("Where's mah bucket?");
        console.error("Oh noes!");
    `, "filename.js")
	// You can also update the console:
	v8console.Config{":-> ", os.Stdout, os.Stdout, false}.Inject(ctx)
	ctx.Eval(`console.log("I'm so happy");`, "file2.js")

	// Output:
	// > hi there
	// > info 4 u
	// > [filename.js:4] Where's mah bucket?
	// > [filename.js:5] Oh noes!
	// :-> I'm so happy
}
