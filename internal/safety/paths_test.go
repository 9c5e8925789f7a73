package safety

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPathAllowed(t *testing.T) {
	allow := []string{"/var/lib/dokploy", "/srv/data"}

	tests := []struct {
		path string
		want bool
	}{
		{"/var/lib/dokploy", true},
		{"/var/lib/dokploy/files", true},
		{"/var/lib/dokploy/../dokploy/files", true},
		{"/var/lib/dokploy-evil", false},
		{"/var/lib", false},
		{"/srv/data/app", true},
		{"/srv/data/../../etc/passwd", false},
		{"/etc/passwd", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := PathAllowed(tt.path, allow); got != tt.want {
			t.Errorf("PathAllowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPathAllowedEmptyAllowlist(t *testing.T) {
	if PathAllowed("/anything", nil) {
		t.Error("empty allowlist must admit nothing")
	}
}

func TestPathAllowedMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	segment := gen.RegexMatch(`[a-z]{1,8}`)
	pathGen := gen.SliceOfN(3, segment).Map(func(segs []string) string {
		return "/" + segs[0] + "/" + segs[1] + "/" + segs[2]
	})
	prefixesGen := gen.SliceOf(pathGen)

	properties.Property("growing the prefix set never revokes admission", prop.ForAll(
		func(hostPath string, prefixes []string, extra string) bool {
			before := PathAllowed(hostPath, prefixes)
			after := PathAllowed(hostPath, append(append([]string{}, prefixes...), extra))
			return !before || after
		},
		pathGen, prefixesGen, pathGen,
	))

	properties.Property("removing a prefix never grants admission", prop.ForAll(
		func(hostPath string, prefixes []string) bool {
			if len(prefixes) == 0 {
				return true
			}
			full := PathAllowed(hostPath, prefixes)
			reduced := PathAllowed(hostPath, prefixes[1:])
			return !reduced || full
		},
		pathGen, prefixesGen,
	))

	properties.TestingRun(t)
}
