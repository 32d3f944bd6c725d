package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/masomo-portal/apps/portal/di"
)

func main() {
	c := di.New()

	var code int
	must(c.Invoke(func(p di.Params) {
		defer p.Closer()

		cli := newCommandLine(p, os.Stdout)
		defer cli.close()

		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				fmt.Fprintf(os.Stderr, "\nerror: %s\n", cli.describe(err))
			}
			code = 1
		}
	}))
	os.Exit(code)
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
