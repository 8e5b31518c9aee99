// Command docket manages the chronological numbering of evidence and
// attachment files.
package main

import "github.com/mesh-intelligence/docket/internal/cli"

func main() {
	cli.Execute()
}
