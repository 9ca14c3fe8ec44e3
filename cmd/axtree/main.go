// Package main provides the entry point for the axtree CLI.
//
// axtree captures the accessibility tree of running applications, normalizes
// it, and renders it as YAML, XML, JSON or a Markdown digest.
//
// Usage:
//
//	axtree snapshot --fixture app.yaml --pid 42
//	axtree snapshot --html page.html --format xml
//	axtree convert tree.json --to yaml --normalize summarized
//
// See --help for all available options.
package main

func main() {
	Execute()
}
