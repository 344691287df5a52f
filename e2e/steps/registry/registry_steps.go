// Package registry holds the godog steps for minting, transferring and
// resolving names.
package registry

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the shared scenario context these steps use.
type TestContext interface {
	Name(fullName string) string
	Account(alias string) string
	GET(path string) error
	POST(path string, body any) error
	PUT(path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers registry and resolver step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	ctx.Step(`^"([^"]*)" registers "([^"]*)"$`, func(owner, name string) error {
		return tc.POST("/domains", map[string]string{
			"full_name": tc.Name(name),
			"owner":     tc.Account(owner),
		})
	})
	ctx.Step(`^"([^"]*)" has registered "([^"]*)"$`, func(owner, name string) error {
		if err := tc.POST("/domains", map[string]string{
			"full_name": tc.Name(name),
			"owner":     tc.Account(owner),
		}); err != nil {
			return err
		}
		return expectStatus(tc, 201)
	})
	ctx.Step(`^"([^"]*)" transfers "([^"]*)" to "([^"]*)"$`, func(from, name, to string) error {
		return tc.POST("/domains/"+tc.Name(name)+"/transfer", map[string]string{
			"from": tc.Account(from),
			"to":   tc.Account(to),
		})
	})
	ctx.Step(`^"([^"]*)" points "([^"]*)" at "([^"]*)"$`, func(caller, name, target string) error {
		return tc.PUT("/domains/"+tc.Name(name)+"/resolution", map[string]string{
			"caller":  tc.Account(caller),
			"address": tc.Account(target),
		})
	})
	ctx.Step(`^"([^"]*)" should be owned by "([^"]*)"$`, func(name, owner string) error {
		if err := tc.GET("/domains/" + tc.Name(name)); err != nil {
			return err
		}
		if err := expectStatus(tc, 200); err != nil {
			return err
		}
		got, err := tc.GetResponseField("owner")
		if err != nil {
			return err
		}
		return sameAccount(got, tc.Account(owner))
	})
	ctx.Step(`^"([^"]*)" should resolve to "([^"]*)"$`, func(name, target string) error {
		if err := tc.GET("/domains/" + tc.Name(name) + "/resolution"); err != nil {
			return err
		}
		got, err := tc.GetResponseField("resolved_address")
		if err != nil {
			return err
		}
		return sameAccount(got, tc.Account(target))
	})
	ctx.Step(`^"([^"]*)" should not resolve$`, func(name string) error {
		if err := tc.GET("/domains/" + tc.Name(name) + "/resolution"); err != nil {
			return err
		}
		got, err := tc.GetResponseField("resolved_address")
		if err != nil {
			return err
		}
		if got != nil {
			return fmt.Errorf("expected no resolution, got %v", got)
		}
		return nil
	})
	ctx.Step(`^the reverse record of "([^"]*)" should be "([^"]*)"$`, func(account, name string) error {
		if err := tc.GET("/reverse/" + tc.Account(account)); err != nil {
			return err
		}
		got, err := tc.GetResponseField("full_name")
		if err != nil {
			return err
		}
		if got != tc.Name(name) {
			return fmt.Errorf("expected reverse record %q, got %v", tc.Name(name), got)
		}
		return nil
	})
}

func expectStatus(tc TestContext, want int) error {
	if got := tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, tc.GetLastResponseBody())
	}
	return nil
}

func sameAccount(got any, want string) error {
	s, ok := got.(string)
	if !ok || !strings.EqualFold(s, want) {
		return fmt.Errorf("expected account %s, got %v", want, got)
	}
	return nil
}
