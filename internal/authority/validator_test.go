package authority

import (
	"testing"

	"AEOAuditor/internal/domain"
)

func TestValidateAllSignals(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
<div class="post-byline">By <a href="https://www.linkedin.com/in/jane-doe">Jane Doe</a></div>
<p>Body text.</p>
<a href="/about">About us</a>
</body></html>`

	signals := Validate(markup)
	if !signals.HasProfileLink || !signals.HasByline || !signals.HasBioLink {
		t.Fatalf("expected all signals, got %+v", signals)
	}
	if signals.BonusPoints != domain.MaxAuthorityBonus {
		t.Fatalf("expected bonus %d, got %d", domain.MaxAuthorityBonus, signals.BonusPoints)
	}
	if domain.TrustLevelFor(signals) != domain.TrustVerified {
		t.Fatalf("expected VERIFIED trust level")
	}
}

func TestValidateIndividualSignals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		markup string
		want   domain.AuthoritySignals
	}{
		{
			name:   "byline id",
			markup: `<span id="Entry-Author">Sam</span>`,
			want:   domain.AuthoritySignals{HasByline: true, BonusPoints: 10},
		},
		{
			name:   "author archive link",
			markup: `<a href="https://example.com/author/sam">Sam</a>`,
			want:   domain.AuthoritySignals{HasBioLink: true, BonusPoints: 10},
		},
		{
			name:   "profile only",
			markup: `<a href="https://linkedin.com/in/sam">profile</a>`,
			want:   domain.AuthoritySignals{HasProfileLink: true, BonusPoints: 20},
		},
		{
			name:   "host name does not count as bio path",
			markup: `<a href="https://aboutblank.example/">x</a>`,
			want:   domain.AuthoritySignals{},
		},
		{
			name:   "mailto and tel targets are not bio pages",
			markup: `<a href="mailto:editor@aboutus.com">mail</a><a href="tel:+1-800-AUTHOR">call</a>`,
			want:   domain.AuthoritySignals{},
		},
		{
			name:   "protocol-relative host is ignored",
			markup: `<a href="//aboutus.example/contact">x</a>`,
			want:   domain.AuthoritySignals{},
		},
		{
			name:   "relative about page",
			markup: `<a href="team/about-us?ref=nav">team</a>`,
			want:   domain.AuthoritySignals{HasBioLink: true, BonusPoints: 10},
		},
		{
			name:   "empty",
			markup: "",
			want:   domain.AuthoritySignals{},
		},
		{
			name:   "malformed",
			markup: `<div class=">><<a href=`,
			want:   domain.AuthoritySignals{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Validate(tc.markup)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
			if !tc.want.HasByline && domain.TrustLevelFor(got) != domain.TrustLow {
				t.Fatalf("expected LOW trust level")
			}
		})
	}
}
