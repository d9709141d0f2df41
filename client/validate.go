package client

import "fmt"

// Argument checks shared by the endpoint methods. These guard obviously
// malformed calls before any bytes hit the wire; full validation stays
// server-side.

func errMissing(field string) error {
	return fmt.Errorf("%s is required", field)
}

func requireWorkspaceID(id string) error {
	if id == "" {
		return errMissing("workspaceId")
	}
	return nil
}

func requirePlanCode(code string) error {
	if code == "" {
		return errMissing("planCode")
	}
	return nil
}

func requireSessionID(id string) error {
	if id == "" {
		return errMissing("signingSessionId")
	}
	return nil
}
