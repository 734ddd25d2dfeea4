package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/config"
)

type onboardCmd struct{}

func (onboardCmd) Name() string        { return "onboard" }
func (onboardCmd) Description() string { return "Register a company, prints its id for upload" }
func (onboardCmd) Usage() string {
	return "onboard -name NAME -sector S [-sub-sector S] -country C -incorporated YYYY-MM-DD " +
		"-contact NAME -email EMAIL [-phone P] -frequency Quarterly|Semi-Annual|Annual [-status Active|Inactive|Offboarded]"
}

func (onboardCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var req model.OnboardingRequest
	fs := flag.NewFlagSet("onboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&req.CompanyName, "name", "", "company name")
	fs.StringVar(&req.Sector, "sector", "", "sector")
	fs.StringVar(&req.SubSector, "sub-sector", "", "sub-sector")
	fs.StringVar(&req.Country, "country", "", "country")
	fs.StringVar(&req.IncorporationDate, "incorporated", "", "incorporation date")
	fs.StringVar(&req.ContactPerson, "contact", "", "contact person")
	fs.StringVar(&req.ContactEmail, "email", "", "contact email")
	fs.StringVar(&req.Phone, "phone", "", "phone")
	fs.StringVar(&req.Frequency, "frequency", "", "reporting frequency")
	fs.StringVar(&req.Status, "status", model.CompanyActive, "status")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || req.CompanyName == "" {
		return ErrUsage
	}

	app, done, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer done()

	c, err := app.Companies.Create(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Company %s onboarded (id %d)\n", c.CompanyName, c.ID)
	fmt.Fprintf(Out, "Upload documents with: dpcli upload %d <zip-path>\n", c.ID)
	return nil
}

func init() { RegisterCmd(onboardCmd{}) }
