// Command chanlogctl is an administrative CLI over a chanlog Manager,
// grounded on hermodctl's cobra+viper bootstrap. Unlike hermodctl's
// remote-API calls, chanlog is an embeddable dispatch core with no
// server of its own, so chanlogctl drives an in-process Manager seeded
// from a declarative channel file (see the root command's PersistentPreRunE
// in root.go) — the
// CLI's purpose is inspecting and replaying that file, not talking to a
// running cluster.
package main

func main() {
	Execute()
}
