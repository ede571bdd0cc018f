package version

import (
	"fmt"
	"log"
	"strings"

	"github.com/auroraswarm/swarm/theme"
)

var (
	Name        = "aurora-swarm"
	Authors     = "Aurora Swarm contributors"
	Description = "Client-side LLM agent pool, reverse proxy and collective-communication patterns"
	Version     = "v0.0.1"
	Commit      = "none"
	Date        = "nowish"
	User        = "local"
)

const (
	GithubHomeText  = "github.com/auroraswarm/swarm"
	GithubHomeUri   = "https://github.com/auroraswarm/swarm"
	GithubLatestUri = "https://github.com/auroraswarm/swarm/releases/latest"
)

func PrintVersionInfo(extendedInfo bool, vlog *log.Logger) {
	githubUri := theme.Hyperlink(GithubHomeUri, GithubHomeText)
	latestUri := theme.Hyperlink(GithubLatestUri, Version)

	var b strings.Builder
	b.WriteString(theme.ColourSplash(strings.ToUpper(Name)))
	b.WriteString("\n")
	b.WriteString(Description)
	b.WriteString("\n\n")
	b.WriteString(githubUri)
	b.WriteString("  ")
	b.WriteString(theme.ColourVersion(latestUri))

	if extendedInfo {
		b.WriteString(fmt.Sprintf("\n Commit: %s", Commit))
		b.WriteString(fmt.Sprintf("\n  Built: %s", Date))
		b.WriteString(fmt.Sprintf("\n  Using: %s", User))
	}

	vlog.Println(theme.BannerBox(b.String()))
}
