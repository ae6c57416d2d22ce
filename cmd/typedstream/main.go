// Command tstream decodes NXTypedStream binary archives.
package main

import "github.com/nxarchive/typedstream/internal/cli"

func main() {
	cli.Execute()
}
