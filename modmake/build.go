package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	xorplugVersion = "0.1.0"
)

func main() {
	b := NewBuild()
	// Generate builds the WASM guest fixture used by the host and CLI tests.
	b.Generate().DependsOnRunner("tidy", "", Go().ModTidy())

	xorplug := NewAppBuild("xorplug", "cmd/xorplug", xorplugVersion)
	xorplug.Build(func(gb *GoBuild) {
		gb.
			StripDebugSymbols().
			SetVariable("main", "version", xorplugVersion).
			CgoEnabled(false)
	})
	xorplug.Variant("windows", "amd64")
	xorplug.Variant("linux", "amd64")
	xorplug.Variant("linux", "arm64")
	xorplug.Variant("darwin", "amd64")
	xorplug.Variant("darwin", "arm64")
	b.ImportApp(xorplug)

	b.Execute()
}
