package rotation

import (
	"regexp"
	"strconv"
)

// OutputClassifier inspects an agent process's free-text output. Agent CLIs
// signal throttling and report usage only through their stdout/stderr text,
// so each known agent gets its own pattern set, with a generic fallback for
// everything else.
type OutputClassifier interface {
	DetectRateLimit(output string) bool
	ParseUsage(output string) map[string]float64
}

func classifierFor(agent string) OutputClassifier {
	if c, ok := classifiers[agent]; ok {
		return c
	}
	return genericClassifier
}

// patternClassifier matches rate-limit phrases and scrapes numeric usage
// counters by named regex.
type patternClassifier struct {
	rateLimit []*regexp.Regexp
	usage     map[string]*regexp.Regexp
}

func (c *patternClassifier) DetectRateLimit(output string) bool {
	for _, re := range c.rateLimit {
		if re.MatchString(output) {
			return true
		}
	}
	return false
}

func (c *patternClassifier) ParseUsage(output string) map[string]float64 {
	var counters map[string]float64
	for name, re := range c.usage {
		m := re.FindStringSubmatch(output)
		if len(m) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if counters == nil {
			counters = make(map[string]float64)
		}
		counters[name] += v
	}
	return counters
}

var genericClassifier = &patternClassifier{
	rateLimit: []*regexp.Regexp{
		regexp.MustCompile(`(?i)rate[- ]?limit`),
		regexp.MustCompile(`(?i)too many requests`),
		regexp.MustCompile(`(?i)quota exceeded`),
		regexp.MustCompile(`\b429\b`),
	},
	usage: map[string]*regexp.Regexp{
		"tokens": regexp.MustCompile(`(?i)(\d+)\s*tokens?\b`),
	},
}

var classifiers = map[string]OutputClassifier{
	"claude": &patternClassifier{
		rateLimit: []*regexp.Regexp{
			regexp.MustCompile(`(?i)usage limit reached`),
			regexp.MustCompile(`(?i)rate[- ]?limit`),
			regexp.MustCompile(`overloaded_error`),
			regexp.MustCompile(`(?i)429.{0,40}too many requests`),
		},
		usage: map[string]*regexp.Regexp{
			"input_tokens":  regexp.MustCompile(`(?i)input[_ ]tokens?\D{0,5}(\d+)`),
			"output_tokens": regexp.MustCompile(`(?i)output[_ ]tokens?\D{0,5}(\d+)`),
		},
	},
	"codex": &patternClassifier{
		rateLimit: []*regexp.Regexp{
			regexp.MustCompile(`(?i)you've hit your usage limit`),
			regexp.MustCompile(`(?i)rate[- ]?limit(ed)?`),
			regexp.MustCompile(`(?i)429 too many requests`),
		},
		usage: map[string]*regexp.Regexp{
			"total_tokens": regexp.MustCompile(`(?i)tokens used\D{0,5}(\d+)`),
		},
	},
	"copilot": &patternClassifier{
		rateLimit: []*regexp.Regexp{
			regexp.MustCompile(`(?i)rate[- ]?limit`),
			regexp.MustCompile(`(?i)quota (exceeded|exhausted)`),
		},
		usage: map[string]*regexp.Regexp{
			"premium_requests": regexp.MustCompile(`(?i)([\d.]+)\s*premium requests?`),
		},
	},
	"gemini": &patternClassifier{
		rateLimit: []*regexp.Regexp{
			regexp.MustCompile(`RESOURCE_EXHAUSTED`),
			regexp.MustCompile(`(?i)quota exceeded`),
			regexp.MustCompile(`(?i)rate[- ]?limit`),
		},
		usage: map[string]*regexp.Regexp{
			"total_tokens": regexp.MustCompile(`(?i)total[_ ]tokens?\D{0,5}(\d+)`),
		},
	},
}
