package flair

import (
	"flairhq/internal/models"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

const DefaultSimilarityThreshold = 1

type DetectInput struct {
	Requester string
	IP        string
	Codes     []string
	Logged    []string
	Banned    []models.BannedUser
	// IPEvents are moderation events whose content mentions IP.
	IPEvents []models.ModerationEvent
}

// BanMatch ties a submitted code to the banned code it resembles.
type BanMatch struct {
	Code       string `json:"code"`
	BannedCode string `json:"bannedCode"`
	BannedUser string `json:"bannedUser"`
	Distance   int    `json:"distance"`
}

type Detection struct {
	FlaggedInvalid    []string   `json:"flaggedInvalid"`
	SimilarToBanned   []string   `json:"similarToBanned"`
	IdenticalToBanned []string   `json:"identicalToBanned"`
	BannedAltUsers    []string   `json:"bannedAltUsers"`
	Matches           []BanMatch `json:"matches"`
	BlockReport       bool       `json:"blockReport"`
}

// HasSignal reports whether anything worth a moderator's attention was found.
func (d *Detection) HasSignal() bool {
	return len(d.FlaggedInvalid) > 0 ||
		len(d.SimilarToBanned) > 0 ||
		len(d.IdenticalToBanned) > 0 ||
		len(d.BannedAltUsers) > 0
}

// ShouldReport is true when there is a signal and the submission changed.
func (d *Detection) ShouldReport() bool {
	return !d.BlockReport && d.HasSignal()
}

type Detector struct {
	validator *Validator
	threshold int
}

func NewDetector(validator *Validator, threshold int) *Detector {
	if threshold < 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Detector{validator: validator, threshold: threshold}
}

func (d *Detector) Detect(in DetectInput) Detection {
	det := Detection{
		FlaggedInvalid: d.flagInvalid(in.Codes, in.Logged),
		BlockReport:    IsUnchanged(in.Codes, in.Logged),
		BannedAltUsers: BannedAltUsers(in.Requester, in.IP, in.IPEvents, in.Banned),
	}
	d.matchBanned(&det, in.Codes, in.Banned)
	return det
}

// flagInvalid grandfathers an invalid code only when the same code was logged
// at the same position before.
func (d *Detector) flagInvalid(codes, logged []string) []string {
	var flagged []string
	for i, fc := range codes {
		if d.validator.IsValid(fc) {
			continue
		}
		if i < len(logged) && logged[i] == fc {
			continue
		}
		flagged = append(flagged, fc)
	}
	return flagged
}

func (d *Detector) matchBanned(det *Detection, codes []string, banned []models.BannedUser) {
	for _, fc := range codes {
		identical, similar := false, false
		for _, bu := range banned {
			for _, bc := range bu.FriendCodes {
				dist := Distance(fc, bc)
				if dist > d.threshold {
					continue
				}
				det.Matches = append(det.Matches, BanMatch{Code: fc, BannedCode: bc, BannedUser: bu.Name, Distance: dist})
				if dist == 0 {
					identical = true
				} else {
					similar = true
				}
			}
		}
		switch {
		case identical:
			det.IdenticalToBanned = append(det.IdenticalToBanned, fc)
		case similar:
			det.SimilarToBanned = append(det.SimilarToBanned, fc)
		}
	}
}

// Distance is the optimal string alignment distance: insertions, deletions,
// substitutions and adjacent transpositions all cost one.
func Distance(a, b string) int {
	return edlib.OSADamerauLevenshteinDistance(a, b)
}

// IsUnchanged reports whether codes is a prefix of the previously logged codes.
func IsUnchanged(codes, logged []string) bool {
	if len(codes) > len(logged) {
		return false
	}
	for i := range codes {
		if codes[i] != logged[i] {
			return false
		}
	}
	return true
}

// BannedAltUsers returns the banned users, other than requester, that were
// seen on the same IP. Text-change events end with "IP: <ip>", so the
// address must match that whole trailing token.
func BannedAltUsers(requester, ip string, events []models.ModerationEvent, banned []models.BannedUser) []string {
	if ip == "" || len(events) == 0 || len(banned) == 0 {
		return nil
	}
	isBanned := make(map[string]struct{}, len(banned))
	for _, bu := range banned {
		isBanned[bu.Name] = struct{}{}
	}
	tag := IPTag(ip)
	found := make(map[string]struct{})
	for _, ev := range events {
		if ev.User == requester || !strings.HasSuffix(ev.Content, tag) {
			continue
		}
		if _, ok := isBanned[ev.User]; ok {
			found[ev.User] = struct{}{}
		}
	}
	if len(found) == 0 {
		return nil
	}
	users := make([]string, 0, len(found))
	for u := range found {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// IPTag is the trailing marker text-change events carry for the client address.
func IPTag(ip string) string {
	return "IP: " + ip
}
