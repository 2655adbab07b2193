package extract

import (
	"net"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/article", false},
		{"http", "http://example.com", false},
		{"ftp scheme", "ftp://example.com/file", true},
		{"file scheme", "file:///etc/passwd", true},
		{"no host", "https://", true},
		{"localhost", "http://localhost:8080/admin", true},
		{"local domain", "https://printer.local/", true},
		{"internal domain", "https://vault.internal/secrets", true},
		{"loopback ip", "http://127.0.0.1/", true},
		{"private ip", "http://10.0.0.5/", true},
		{"link local", "http://169.254.169.254/latest/meta-data", true},
		{"cgnat", "http://100.64.1.1/", true},
		{"public ip", "http://93.184.216.34/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"169.254.0.1", true},
		{"100.64.0.1", true},
		{"0.0.0.0", true},
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true},
		{"::ffff:192.168.1.1", true},
		{"8.8.8.8", false},
		{"93.184.216.34", false},
		{"2606:4700::1111", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("bad test IP %q", tt.ip)
			}
			if got := IsPrivateIP(ip); got != tt.want {
				t.Errorf("IsPrivateIP(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	if got := Domain("https://blog.example.com/post?x=1"); got != "blog.example.com" {
		t.Errorf("Domain() = %q", got)
	}
	if got := Domain("://not a url"); got != "" {
		t.Errorf("Domain(invalid) = %q, want empty", got)
	}
}
