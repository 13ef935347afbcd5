// Command recordx inspects and edits record documents from the command line.
//
// A record document is either a flat YAML/JSON mapping (an "id" field is the
// identity) or a snapshot written by the codec package with separate
// "current" and "baseline" sections.
//
//	recordx inspect user.yaml
//	recordx edit user.yaml --set name=y --unset email --changes
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
