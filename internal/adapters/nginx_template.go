package adapters

import (
	"bytes"
	"path/filepath"
	"text/template"

	"proxyd/internal/core/domain"
)

const vhostTemplate = `server {
    listen 80;
    server_name {{ .Domain }};
{{- if .ChallengeRoot }}

    location /.well-known/acme-challenge/ {
        root {{ .ChallengeRoot }};
    }
{{- end }}

    location / {
        proxy_pass http://{{ .UpstreamIP }}:{{ .UpstreamPort }};
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
{{- if .IncludeTLS }}

server {
    listen 443 ssl;
    server_name {{ .Domain }};

    ssl_certificate {{ .CertPath }};
    ssl_certificate_key {{ .KeyPath }};

    location / {
        proxy_pass http://{{ .UpstreamIP }}:{{ .UpstreamPort }};
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
{{- end }}
`

var vhostTmpl = template.Must(template.New("vhost").Parse(vhostTemplate))

// Renderer turns a Proxy into nginx server blocks. It holds render options
// only and performs no I/O; identical input yields byte-identical output.
type Renderer struct {
	// ChallengeRoot, when set, adds an ACME HTTP-01 challenge location to
	// the plaintext server block.
	ChallengeRoot string
	// CertDir is the base directory of per-domain certificates, certbot
	// live layout: <CertDir>/<domain>/fullchain.pem.
	CertDir string
}

type vhostData struct {
	Domain        string
	UpstreamIP    string
	UpstreamPort  int
	ChallengeRoot string
	IncludeTLS    bool
	CertPath      string
	KeyPath       string
}

// Render produces the vhost text. The plaintext server block is always
// emitted; the TLS block is appended only when requested, which the engine
// does once the domain's certificate actually exists.
func (r Renderer) Render(p *domain.Proxy, includeTLS bool) (string, error) {
	certDir := r.CertDir
	if certDir == "" {
		certDir = "/etc/letsencrypt/live"
	}
	data := vhostData{
		Domain:        p.NewDomain,
		UpstreamIP:    p.OldIP,
		UpstreamPort:  p.OldPort,
		ChallengeRoot: r.ChallengeRoot,
		IncludeTLS:    includeTLS,
		CertPath:      filepath.Join(certDir, p.NewDomain, "fullchain.pem"),
		KeyPath:       filepath.Join(certDir, p.NewDomain, "privkey.pem"),
	}

	var buf bytes.Buffer
	if err := vhostTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
