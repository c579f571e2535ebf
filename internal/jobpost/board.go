package jobpost

import (
	"net/url"
	"strings"
)

// Board is a job board whose page layout is known
type Board string

const (
	BoardGreenhouse Board = "greenhouse"
	BoardLever      Board = "lever"
	BoardWorkday    Board = "workday"
	BoardAshby      Board = "ashby"
	BoardGeneric    Board = "generic"
)

// boardHosts maps host suffixes onto boards
var boardHosts = []struct {
	suffix string
	board  Board
}{
	{"greenhouse.io", BoardGreenhouse},
	{"lever.co", BoardLever},
	{"myworkdayjobs.com", BoardWorkday},
	{"workday.com", BoardWorkday},
	{"ashbyhq.com", BoardAshby},
}

// DetectBoard identifies the job board serving u
func DetectBoard(u *url.URL) Board {
	if u == nil {
		return BoardGeneric
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range boardHosts {
		if host == h.suffix || strings.HasSuffix(host, "."+h.suffix) {
			return h.board
		}
	}
	return BoardGeneric
}

var genericContent = []string{
	".job-description",
	"#job-description",
	".job-details",
	".posting-content",
	"[data-testid='job-description']",
	"main",
	"article",
	"#content",
	".content",
}

var boardContent = map[Board][]string{
	BoardGreenhouse: {".job__description", ".job-description__content", "#content", ".job-post-container"},
	BoardLever:      {".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"},
	BoardWorkday:    {"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']", ".job-description"},
	BoardAshby:      {".ashby-job-posting-right-pane", "[class*='descriptionText']", "main"},
}

// pageNoise is removed from every page before extraction
var pageNoise = []string{
	"nav", "footer", "header", "script", "style", "noscript",
	"form", ".application-form", "#application-form", ".apply-button-container",
	".eeo-statement", ".eeo-section", ".voluntary-disclosure", ".self-identification",
	".social-share", ".share-buttons",
	".cookie-banner", ".cookie-consent", ".gdpr-notice",
}

var boardNoise = map[Board][]string{
	BoardGreenhouse: {".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	BoardLever:      {".apply-section", ".posting-apply"},
	BoardWorkday:    {"[data-automation-id='applyButton']"},
}

func (b Board) contentSelectors() []string {
	if sel, ok := boardContent[b]; ok {
		return append(append([]string{}, sel...), genericContent...)
	}
	return genericContent
}

func (b Board) noiseSelectors() []string {
	return append(append([]string{}, pageNoise...), boardNoise[b]...)
}
