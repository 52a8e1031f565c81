package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapcode/leapsrp/internal/auth"
	"github.com/leapcode/leapsrp/internal/config"
	"github.com/leapcode/leapsrp/pkg/srp"
)

// runVerifier signs a user up offline: it reads the password from in and
// prints a users entry holding the salt and verifier instead of the password.
func runVerifier(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("verifier", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	login := fs.String("login", "", "username")
	group := fs.String("group", srp.GroupLEAP1024, "SRP group")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *login == "" {
		return fmt.Errorf("--login is required")
	}

	params, err := srp.GroupByName(*group)
	if err != nil {
		return err
	}

	password, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return fmt.Errorf("empty password")
	}

	record, err := auth.NewRecord(params, *login, password)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(map[string][]config.UserDefinition{
		"users": {{
			Login:    record.Username,
			Salt:     hex.EncodeToString(record.Salt),
			Verifier: record.Verifier.Text(16),
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	_, err = out.Write(data)
	return err
}
