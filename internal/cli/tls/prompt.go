package tls

import (
	"bufio"
	"crypto/x509"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapcode/leapsrp/internal/cli/clicontext"
)

// Prompter asks the user whether to trust a certificate.
type Prompter struct {
	In        io.Reader
	Out       io.Writer
	AssumeYes bool
}

// PromptAcceptCertificate prompts on the terminal to accept or reject an
// unknown certificate. With --assumeyes the certificate is accepted without
// asking.
func PromptAcceptCertificate(host string, cert *x509.Certificate) bool {
	p := &Prompter{In: os.Stdin, Out: os.Stderr, AssumeYes: clicontext.AssumeYes()}
	return p.Accept(host, cert)
}

// Accept shows the certificate details and returns true if the user accepts.
func (p *Prompter) Accept(host string, cert *x509.Certificate) bool {
	fmt.Fprintf(p.Out, "\n")
	fmt.Fprintf(p.Out, "WARNING: Unknown TLS certificate\n")
	fmt.Fprintf(p.Out, "  Host:        %s\n", host)
	fmt.Fprintf(p.Out, "  Subject:     %s\n", cert.Subject)
	fmt.Fprintf(p.Out, "  Issuer:      %s\n", cert.Issuer)
	fmt.Fprintf(p.Out, "  Valid From:  %s\n", cert.NotBefore)
	fmt.Fprintf(p.Out, "  Valid Until: %s\n", cert.NotAfter)
	fmt.Fprintf(p.Out, "  Fingerprint: %s\n", ComputeFingerprint(cert))
	fmt.Fprintf(p.Out, "\n")

	if p.AssumeYes {
		fmt.Fprintf(p.Out, "Automatically accepting certificate (--assumeyes flag is set)\n")
		return true
	}

	return p.yesNo("Do you want to accept this certificate?")
}

// yesNo asks until it gets an answer. End of input counts as no.
func (p *Prompter) yesNo(question string) bool {
	reader := bufio.NewReader(p.In)

	for {
		fmt.Fprintf(p.Out, "%s (yes/no): ", question)

		response, err := reader.ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))

		switch response {
		case "yes", "y":
			return true
		case "no", "n":
			return false
		}
		if err != nil {
			return false
		}
		fmt.Fprintf(p.Out, "Please answer 'yes' or 'no'\n")
	}
}
