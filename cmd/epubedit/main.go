// Command epubedit reads and rewrites the package metadata of ePub files.
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:]))
}
