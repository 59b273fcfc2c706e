// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Budget bounds. Amounts outside are treated as noise.
const (
	minBudget = 300
	maxBudget = 50000
	maxBeds   = 10

	// urgentWindow marks a move-in date as urgent.
	urgentWindow = 30 * 24 * time.Hour
)

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var (
	studioRe    = regexp.MustCompile(`(?i)\bstudio\b`)
	bedroomsRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\s*-?\s*(?:bed(?:room)?s?|bdrms?|brs?|bds?)\b`)
	bedWordRe   = regexp.MustCompile(`(?i)\b(one|two|three|four|five|six|seven|eight|nine|ten)\s*-?\s*(?:bed(?:room)?s?|br)\b`)
	bareCountRe = regexp.MustCompile(`(?i)^\s*(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten)\s*[.!]?\s*$`)

	budgetDollarRe = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*(k\b)?`)
	budgetMonthRe  = regexp.MustCompile(`(?i)\b(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*(k)?\s*(?:/\s*mo(?:nth)?\b|per\s+month\b|a\s+month\b|monthly\b)`)
	budgetKRe      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*k\b`)
	budgetWordRe   = regexp.MustCompile(`(?i)\bbudget(?:\s+is|'s|\s+of|\s+around|\s+about|\s+up\s+to|\s*:)?\s*(?:around\s+|about\s+)?\$?\s?(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*(k\b)?`)
	bareAmountRe   = regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+|\d{3,5})\b`)

	asapRe      = regexp.MustCompile(`(?i)\b(asap|a\.s\.a\.p|immediately|right away|right now|urgently)\b`)
	thisMonthRe = regexp.MustCompile(`(?i)\bthis month\b`)
	nextWeekRe  = regexp.MustCompile(`(?i)\bnext week\b`)
	nextMonthRe = regexp.MustCompile(`(?i)\bnext month\b`)
	inSpanRe    = regexp.MustCompile(`(?i)\bin\s+(\d{1,2}|a|one|two|three|four|five|six)\s+(day|week|month)s?\b`)
	monthRe     = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)
	mayRe       = regexp.MustCompile(`(?i)\b(?:in|by|early|mid|late|end of|start of)\s+may\b`)

	petsNegRe = regexp.MustCompile(`(?i)\b(?:no|zero|without)\s+(?:pets?|dogs?|cats?|animals?)\b|\b(?:don'?t|do not|dont|doesn'?t)\s+have\s+(?:any\s+)?(?:pets?|dogs?|cats?|animals?)\b|\bpet[- ]?free\b`)
	petsPosRe = regexp.MustCompile(`(?i)\b(?:pets?|dogs?|cats?|puppy|puppies|kitten|kittens|bird|birds|rabbit|rabbits|hamster|fish)\b`)

	nameRe = regexp.MustCompile(`\b(?i:my name is|my name's|this is|i'm|i am|im)\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)?)`)

	dayRe     = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|tomorrow|tonight|weekend)\b`)
	clockRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am\b|pm\b|a\.m\.|p\.m\.)`)
	dayPartRe = regexp.MustCompile(`(?i)\b(morning|afternoon|evening|noon|lunchtime)\b`)
)

var nameStopWords = map[string]bool{
	"interested": true, "looking": true, "moving": true, "ok": true, "okay": true,
	"good": true, "fine": true, "not": true, "just": true, "here": true,
	"available": true, "free": true, "new": true, "sorry": true, "thinking": true,
	"a": true, "the": true, "in": true, "on": true,
}

var yesWords = map[string]bool{
	"y": true, "yes": true, "yeah": true, "yep": true, "yup": true, "sure": true,
	"ok": true, "okay": true, "definitely": true, "absolutely": true, "please": true,
	"si": true, "correct": true,
}

var noWords = map[string]bool{
	"n": true, "no": true, "nope": true, "nah": true, "not": true, "never": true,
}

// noProblemRe is a pleasantry, not a refusal.
var noProblemRe = regexp.MustCompile(`(?i)^\W*no\W+(problem|worries)\b`)

// ExtractBedrooms finds a bedroom count. A studio is zero.
func ExtractBedrooms(text string) (int, bool) {
	if m := bedroomsRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= maxBeds {
			return n, true
		}
	}
	if m := bedWordRe.FindStringSubmatch(text); m != nil {
		return wordNumbers[strings.ToLower(m[1])], true
	}
	if studioRe.MatchString(text) {
		return 0, true
	}
	return 0, false
}

// ExtractBareCount reads a reply that is only a number, as sent in answer
// to "how many bedrooms?".
func ExtractBareCount(text string) (int, bool) {
	m := bareCountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	if n, ok := wordNumbers[strings.ToLower(m[1])]; ok {
		return n, true
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > maxBeds {
		return 0, false
	}
	return n, true
}

func parseAmount(num, k string) (int, bool) {
	num = strings.ReplaceAll(num, ",", "")
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if k != "" {
		f *= 1000
	}
	n := int(f)
	if n < minBudget || n > maxBudget {
		return 0, false
	}
	return n, true
}

// ExtractBudget finds a monthly rent budget.
func ExtractBudget(text string) (int, bool) {
	for _, re := range []*regexp.Regexp{budgetWordRe, budgetDollarRe, budgetMonthRe, budgetKRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			k := ""
			if len(m) > 2 {
				k = m[2]
			}
			if n, ok := parseAmount(m[1], k); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// ExtractBareAmount reads a plain number as a budget, for replies to
// "what is your budget?".
func ExtractBareAmount(text string) (int, bool) {
	for _, m := range bareAmountRe.FindAllStringSubmatch(text, -1) {
		if n, ok := parseAmount(m[1], ""); ok {
			return n, true
		}
	}
	return 0, false
}

// MoveIn is a parsed move-in preference.
type MoveIn struct {
	Label  string
	Urgent bool
}

// ExtractMoveIn finds when the lead wants to move in, relative to now.
func ExtractMoveIn(text string, now time.Time) (MoveIn, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	within := func(t time.Time) bool { return !t.After(today.Add(urgentWindow)) }

	switch {
	case asapRe.MatchString(text):
		return MoveIn{Label: "asap", Urgent: true}, true
	case thisMonthRe.MatchString(text):
		return MoveIn{Label: "this month", Urgent: true}, true
	case nextWeekRe.MatchString(text):
		return MoveIn{Label: "next week", Urgent: true}, true
	case nextMonthRe.MatchString(text):
		first := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location())
		return MoveIn{Label: "next month", Urgent: within(first)}, true
	}

	if m := inSpanRe.FindStringSubmatch(text); m != nil {
		n, ok := wordNumbers[strings.ToLower(m[1])]
		if !ok {
			if strings.EqualFold(m[1], "a") {
				n = 1
			} else {
				n, _ = strconv.Atoi(m[1])
			}
		}
		unit := strings.ToLower(m[2])
		var target time.Time
		switch unit {
		case "day":
			target = today.AddDate(0, 0, n)
		case "week":
			target = today.AddDate(0, 0, 7*n)
		default:
			target = today.AddDate(0, n, 0)
		}
		label := "in " + strconv.Itoa(n) + " " + unit
		if n != 1 {
			label += "s"
		}
		return MoveIn{Label: label, Urgent: within(target)}, true
	}

	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			target := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, today.Location())
			if target.Before(today) {
				target = target.AddDate(1, 0, 0)
			}
			return MoveIn{Label: target.Format("Jan 2"), Urgent: within(target)}, true
		}
	}

	if m := monthRe.FindStringSubmatch(text); m != nil {
		month := parseMonth(m[1])
		// "may" is too common a word to read as a month on its own.
		if month == time.May && !strings.Contains(text, "May") && !mayRe.MatchString(text) {
			return MoveIn{}, false
		}
		year := today.Year()
		if month < today.Month() {
			year++
		}
		first := time.Date(year, month, 1, 0, 0, 0, 0, today.Location())
		return MoveIn{Label: month.String(), Urgent: within(first)}, true
	}

	return MoveIn{}, false
}

func parseMonth(s string) time.Month {
	s = strings.ToLower(s)
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), s[:3]) {
			return m
		}
	}
	return time.January
}

// ExtractPets reports whether the lead has pets. Negation wins.
func ExtractPets(text string) (bool, bool) {
	if petsNegRe.MatchString(text) {
		return false, true
	}
	if petsPosRe.MatchString(text) {
		return true, true
	}
	return false, false
}

// ExtractCity returns the known city the lead asked for with "in <City>".
func ExtractCity(text string, known []string) (string, bool) {
	lower := strings.ToLower(text)
	best := ""
	for _, city := range known {
		c := strings.ToLower(strings.TrimSpace(city))
		if c == "" {
			continue
		}
		for _, prefix := range []string{"in ", "near ", "around "} {
			idx := strings.Index(lower, prefix+c)
			if idx < 0 {
				continue
			}
			end := idx + len(prefix) + len(c)
			if end < len(lower) && isWordByte(lower[end]) {
				continue
			}
			if len(city) > len(best) {
				best = city
			}
		}
	}
	return best, best != ""
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// ExtractName finds a self-introduction.
func ExtractName(text string) (string, bool) {
	m := nameRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	words := strings.Fields(m[1])
	if nameStopWords[strings.ToLower(words[0])] {
		return "", false
	}
	if len(words) > 1 && nameStopWords[strings.ToLower(words[1])] {
		words = words[:1]
	}
	return strings.Join(words, " "), true
}

// ExtractViewing finds a requested viewing day and optional time.
func ExtractViewing(text string) (day, at string, ok bool) {
	m := dayRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	day = strings.ToLower(m[1])
	switch day {
	case "weekend":
		day = "this weekend"
	case "tonight":
		day = "today"
		at = "evening"
	case "today", "tomorrow":
	default:
		day = strings.ToUpper(day[:1]) + day[1:]
	}

	if c := clockRe.FindStringSubmatch(text); c != nil {
		hour, _ := strconv.Atoi(c[1])
		if hour >= 1 && hour <= 12 {
			suffix := strings.ToLower(strings.ReplaceAll(c[3], ".", ""))
			at = c[1]
			if c[2] != "" {
				at += ":" + c[2]
			}
			at += suffix
		}
	} else if p := dayPartRe.FindStringSubmatch(text); p != nil {
		at = strings.ToLower(p[1])
	}
	return day, at, true
}

func firstWord(text string) (string, int) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r == '\'')
	})
	if len(words) == 0 {
		return "", 0
	}
	return words[0], len(words)
}

// IsYes reports an affirmative short reply.
func IsYes(text string) bool {
	w, n := firstWord(text)
	return n > 0 && n <= 6 && yesWords[w]
}

// IsNo reports a negative short reply.
func IsNo(text string) bool {
	w, n := firstWord(text)
	return n > 0 && n <= 6 && noWords[w] && !noProblemRe.MatchString(text)
}
