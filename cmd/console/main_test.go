package main

import "testing"

func TestNewRootCmd_CommandsRegistered(t *testing.T) {
	root := NewRootCmd()

	want := []string{
		"whoami", "logout", "plans", "subscription", "cancel",
		"purchase", "close-order", "sign", "close-signing", "wallet",
	}
	have := map[string]bool{}
	for _, c := range root.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestNewRootCmd_GlobalFlags(t *testing.T) {
	root := NewRootCmd()
	for _, flag := range []string{"api-url", "billing-url", "debug"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag %q missing", flag)
		}
	}
}
