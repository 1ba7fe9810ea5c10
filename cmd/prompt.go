package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/benedict-erwin/wafanalyzer/config"
	"github.com/benedict-erwin/wafanalyzer/internal/waf"
	"github.com/benedict-erwin/wafanalyzer/pkg/utils"
	"github.com/olekukonko/tablewriter"
)

// ErrNotInteractive is returned when input is needed but stdin is not a terminal
var ErrNotInteractive = errors.New("input required but stdin is not a terminal")

// prompter asks for missing values on out and reads answers from in
type prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// ask prints label and returns the trimmed answer
func (p *prompter) ask(label string) (string, error) {
	if !p.interactive {
		return "", fmt.Errorf("%s: %w", strings.TrimSuffix(label, ":"), ErrNotInteractive)
	}
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return line, nil
}

// credentials fills in whatever part of creds is empty
func (p *prompter) credentials(creds config.Credentials) (config.Credentials, error) {
	var err error
	if creds.User == "" {
		if creds.User, err = p.ask("Enter your username:"); err != nil {
			return creds, err
		}
	}
	if creds.Key == "" {
		if creds.Key, err = p.ask("Enter your API key:"); err != nil {
			return creds, err
		}
	}
	return creds, creds.Validate()
}

// pickZone lists zones and asks for a list number until a valid one is entered
func (p *prompter) pickZone(zones []waf.Zone) (string, error) {
	if len(zones) == 0 {
		return "", errors.New("no zones available for this account")
	}
	if !p.interactive {
		return "", fmt.Errorf("zone selection: %w (use --zone, --org or --all)", ErrNotInteractive)
	}

	fmt.Fprintf(p.out, "\nThe following zones are available:\n\n")
	if err := renderZoneTable(p.out, zones, true); err != nil {
		return "", err
	}

	for {
		fmt.Fprint(p.out, "\nPlease enter the list number:")
		line, err := p.in.ReadString('\n')
		n, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr == nil && n >= 1 && n <= len(zones) {
			return zones[n-1].ID, nil
		}
		if err != nil {
			return "", fmt.Errorf("zone selection aborted: %w", err)
		}
		fmt.Fprintln(p.out, "Error: Invalid input. Try again.")
	}
}

// renderZoneTable writes zones as a table, optionally numbered for picking
func renderZoneTable(out io.Writer, zones []waf.Zone, numbered bool) error {
	table := tablewriter.NewWriter(out)

	header := []string{"ID", "Name", "Status", "Org"}
	if numbered {
		header = append([]string{"No."}, header...)
	}
	table.Header(header)

	for i, z := range zones {
		row := []string{z.ID, z.Name, utils.UcFirst(z.Status), z.OrgID}
		if numbered {
			row = append([]string{strconv.Itoa(i + 1)}, row...)
		}
		table.Append(row)
	}
	return table.Render()
}
