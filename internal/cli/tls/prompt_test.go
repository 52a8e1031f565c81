package tls_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	cliTLS "github.com/leapcode/leapsrp/internal/cli/tls"
)

func TestPrompter_Accept(t *testing.T) {
	cert := createTestCertificate(t, "api.example.org")

	tests := []struct {
		name      string
		input     string
		assumeYes bool
		want      bool
	}{
		{name: "yes", input: "yes\n", want: true},
		{name: "short yes", input: "Y\n", want: true},
		{name: "no", input: "no\n", want: false},
		{name: "retry after garbage", input: "maybe\ny\n", want: true},
		{name: "end of input", input: "", want: false},
		{name: "answer without newline", input: "yes", want: true},
		{name: "assume yes", input: "", assumeYes: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &cliTLS.Prompter{In: strings.NewReader(tt.input), Out: &out, AssumeYes: tt.assumeYes}

			assert.Equal(t, tt.want, p.Accept("api.example.org:4430", cert))
			assert.Contains(t, out.String(), "api.example.org:4430")
			assert.Contains(t, out.String(), cliTLS.ComputeFingerprint(cert))
		})
	}
}
