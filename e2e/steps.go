package e2e

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"

	"registrar/e2e/steps/marketplace"
	"registrar/e2e/steps/registry"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.Reset()
		return ctx, nil
	})

	ctx.Step(`^the response status should be (\d+)$`, func(status int) error {
		if got := tc.GetLastResponseStatus(); got != status {
			return fmt.Errorf("expected status %d, got %d: %s", status, got, tc.GetLastResponseBody())
		}
		return nil
	})
	ctx.Step(`^the error reason should be "([^"]*)"$`, func(reason string) error {
		got, err := tc.GetResponseField("reason")
		if err != nil {
			return err
		}
		if got != reason {
			return fmt.Errorf("expected reason %q, got %v", reason, got)
		}
		return nil
	})
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, func(field, want string) error {
		got, err := tc.GetResponseField(field)
		if err != nil {
			return err
		}
		var s string
		switch v := got.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		case nil:
			s = "null"
		default:
			s = fmt.Sprint(v)
		}
		if s != want {
			return fmt.Errorf("expected %s=%q, got %q", field, want, s)
		}
		return nil
	})

	registry.RegisterSteps(ctx, tc)
	marketplace.RegisterSteps(ctx, tc)
}
