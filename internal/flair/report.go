package flair

import (
	"fmt"
	"strings"
)

const (
	NoteTool     = "FlairHQ"
	NoteCategory = "spamwatch"
)

// Report is the modmail and usernote raised for a suspicious flair change.
type Report struct {
	Subject string
	Body    string
	Note    string
}

type ReportInput struct {
	User        string
	Trades      string
	Exchange    string
	TradesSub   string
	ExchangeSub string
	TotalCodes  int
	Detection   Detection
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func BuildReport(in ReportInput) Report {
	det := in.Detection
	var titles, notes []string
	var b strings.Builder

	if n := len(det.FlaggedInvalid); n > 0 {
		titles = append(titles, "Invalid friend code"+plural(n, "", "s"))
		notes = append(notes, "Invalid friend code"+plural(n, "", "s")+": "+strings.Join(det.FlaggedInvalid, ","))
		if n == 1 {
			fmt.Fprintf(&b, "The user /u/%s set a flair containing an invalid friend code.\n\n", in.User)
		} else {
			fmt.Fprintf(&b, "The user /u/%s set a flair containing %d invalid friend codes.\n\n", in.User, n)
		}
	}
	if len(det.IdenticalToBanned) > 0 || len(det.SimilarToBanned) > 0 {
		titles = append(titles, "Banned friend code")
		fmt.Fprintf(&b, "The user /u/%s set a flair with friend codes matching banned users.\n\n", in.User)
	}
	if n := len(det.BannedAltUsers); n > 0 {
		titles = append(titles, "Possible alt account")
		notes = append(notes, "Shares IP with banned "+plural(n, "user", "users")+": "+strings.Join(det.BannedAltUsers, ","))
		fmt.Fprintf(&b, "The user /u/%s shares an IP address with banned %s.\n\n", in.User, plural(n, "user", "users"))
	}

	if in.Trades != "" {
		fmt.Fprintf(&b, "/u/%s %s (/r/%s)\n\n", in.User, in.Trades, in.TradesSub)
	}
	if in.Exchange != "" {
		fmt.Fprintf(&b, "/u/%s %s (/r/%s)\n\n", in.User, in.Exchange, in.ExchangeSub)
	}

	if n := len(det.FlaggedInvalid); n > 0 && in.TotalCodes > n {
		fmt.Fprintf(&b, "The following friend code%s invalid:\n\n", plural(n, " is", "s are"))
		for _, fc := range det.FlaggedInvalid {
			b.WriteString(fc + "\n\n")
		}
	}
	if len(det.Matches) > 0 {
		b.WriteString("Matches against banned friend codes:\n\n")
		var identical, similar []string
		for _, m := range det.Matches {
			line := fmt.Sprintf("%s ~ %s (/u/%s, distance %d)", m.Code, m.BannedCode, m.BannedUser, m.Distance)
			b.WriteString(line + "\n\n")
			if m.Distance == 0 {
				identical = append(identical, m.Code+" (/u/"+m.BannedUser+")")
			} else {
				similar = append(similar, m.Code+" (/u/"+m.BannedUser+")")
			}
		}
		if len(identical) > 0 {
			notes = append(notes, "Banned friend code: "+strings.Join(identical, ","))
		}
		if len(similar) > 0 {
			notes = append(notes, "Similar to banned friend code: "+strings.Join(similar, ","))
		}
	}
	for _, u := range det.BannedAltUsers {
		fmt.Fprintf(&b, "/u/%s\n\n", u)
	}

	return Report{
		Subject: "FlairHQ report: " + strings.Join(titles, ", "),
		Body:    b.String(),
		Note:    strings.Join(notes, "; "),
	}
}
