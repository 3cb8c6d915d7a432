// cpnconvert converts flat-compounding Ibor coupons into pricing derivatives.
//
// Usage:
//
//	cpnconvert convert < coupon.json
//	cpnconvert pv --input coupon.json
//	cpnconvert batch < coupons.json
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/meenmo/cpnlib/logger"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	defer logger.Sync()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		if errors.Is(err, errReported) {
			return 1
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	return 0
}
