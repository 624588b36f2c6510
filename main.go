// Command detectstudio selects or captures an image, sends it to an object
// detection server and shows the annotated result.
//
// Usage:
//
//	detectstudio                   open the GUI
//	detectstudio annotate <image>  annotate one image without a window
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
