// Package marketplace holds the godog steps for listings and purchases.
package marketplace

import (
	"fmt"

	"github.com/cucumber/godog"
)

type TestContext interface {
	Name(fullName string) string
	Account(alias string) string
	GET(path string) error
	POST(path string, body any) error
	DELETE(path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers marketplace step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	ctx.Step(`^"([^"]*)" lists "([^"]*)" for "([^"]*)"$`, func(seller, name, price string) error {
		return tc.POST("/listings", map[string]string{
			"full_name": tc.Name(name),
			"seller":    tc.Account(seller),
			"price":     price,
		})
	})
	ctx.Step(`^"([^"]*)" has listed "([^"]*)" for "([^"]*)"$`, func(seller, name, price string) error {
		if err := tc.POST("/listings", map[string]string{
			"full_name": tc.Name(name),
			"seller":    tc.Account(seller),
			"price":     price,
		}); err != nil {
			return err
		}
		if got := tc.GetLastResponseStatus(); got != 201 {
			return fmt.Errorf("expected status 201, got %d: %s", got, tc.GetLastResponseBody())
		}
		return nil
	})
	ctx.Step(`^"([^"]*)" unlists "([^"]*)"$`, func(caller, name string) error {
		return tc.DELETE("/listings/"+tc.Name(name), map[string]string{"caller": tc.Account(caller)})
	})
	ctx.Step(`^"([^"]*)" buys "([^"]*)" paying "([^"]*)"$`, func(buyer, name, payment string) error {
		return tc.POST("/listings/"+tc.Name(name)+"/purchase", map[string]string{
			"buyer":   tc.Account(buyer),
			"payment": payment,
		})
	})
	ctx.Step(`^"([^"]*)" should be listed for "([^"]*)"$`, func(name, price string) error {
		if err := tc.GET("/listings/" + tc.Name(name)); err != nil {
			return err
		}
		active, err := tc.GetResponseField("active")
		if err != nil {
			return err
		}
		got, err := tc.GetResponseField("price")
		if err != nil {
			return err
		}
		if active != true || fmt.Sprint(got) != price {
			return fmt.Errorf("expected active listing at %s, got active=%v price=%v", price, active, got)
		}
		return nil
	})
	ctx.Step(`^"([^"]*)" should not be listed$`, func(name string) error {
		if err := tc.GET("/listings/" + tc.Name(name)); err != nil {
			return err
		}
		active, err := tc.GetResponseField("active")
		if err != nil {
			return err
		}
		if active != false {
			return fmt.Errorf("expected inactive listing, got %s", tc.GetLastResponseBody())
		}
		return nil
	})
}
