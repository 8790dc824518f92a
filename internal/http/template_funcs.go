package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/target/hr-dashboard/internal/domain/hr"
)

// templateFuncs returns the helpers available to every template. t is
// resolved lazily so renderSection can execute templates of the same set.
func templateFuncs(t **template.Template) template.FuncMap {
	return template.FuncMap{
		"renderSection": func(name string, data any) (template.HTML, error) {
			if t == nil || *t == nil {
				return "", errors.New("template not initialized")
			}
			var buf bytes.Buffer
			if err := (*t).ExecuteTemplate(&buf, name, data); err != nil {
				return "", err
			}
			// #nosec G203 - produced by our own html/template set, already escaped.
			return template.HTML(buf.String()), nil
		},
		"money":     formatMoney,
		"stars":     stars,
		"monthName": monthName,
		"dayClass":  dayClass,
		"dayLabel":  dayLabel,
		"percent":   percent,
		"seq":       seq,
		"intp":      intp,
		"add":       func(a, b int) int { return a + b },
		"itoa":      strconv.Itoa,
		"dict":      dict,
		"statusBadge": func(s hr.LeaveStatus) string {
			return "badge badge-" + string(s)
		},
		"date": func(ts hr.Timestamp) string {
			if ts.IsZero() {
				return ""
			}
			return ts.Local().Format("2006-01-02")
		},
	}
}

// formatMoney renders an amount with thousands separators and two decimals.
func formatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// stars renders a 1..5 score as filled and empty stars.
func stars(score int) string {
	score = min(max(score, 0), 5)
	return strings.Repeat("★", score) + strings.Repeat("☆", 5-score)
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()
}

func dayClass(s hr.DayStatus) string {
	return "day day-" + strings.ReplaceAll(string(s), "_", "-")
}

func dayLabel(s hr.DayStatus) string {
	switch s {
	case hr.DayPresent:
		return "Present"
	case hr.DayPaidLeave:
		return "Paid leave"
	case hr.DayWeekend:
		return "Weekend"
	case hr.DayFuture:
		return "Upcoming"
	case hr.DayAbsentUnexcused:
		return "Absent"
	default:
		return string(s)
	}
}

// percent returns part/whole as a 0..100 integer for bar widths.
func percent(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	return min(part*100/whole, 100)
}

// seq returns n zero-valued items for ranging in templates.
func seq(n int) []struct{} {
	if n <= 0 {
		return nil
	}
	return make([]struct{}, n)
}

// dict builds a map from alternating keys and values so one template can
// pass several values to another.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func intp(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
