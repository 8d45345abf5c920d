package auction

import (
	"encoding/json"

	"quickbid/internal/pkg/errs"
)

// Kind is the closed set of auction types. Each variant carries its own
// settings payload so type-specific behavior is dispatched on the concrete
// type instead of a string tag.
type Kind interface {
	Name() KindName
	sealed()
}

type KindName string

const (
	KindLive   KindName = "live"
	KindTimed  KindName = "timed"
	KindFlash  KindName = "flash"
	KindTender KindName = "tender"
)

var ErrUnknownKind = errs.New("unknown auction kind")

// LiveSettings configures a streamed live auction. RequiresTokenDeposit is
// recorded but not enforced by admission; enforcement lives with the payments
// collaborator.
type LiveSettings struct {
	StreamURL            string `json:"streamUrl,omitempty"`
	RequiresTokenDeposit bool   `json:"requiresTokenDeposit,omitempty"`
}

// TimedSettings configures a classic timed auction with optional anti-sniping
// extension.
type TimedSettings struct {
	AutoExtend bool `json:"autoExtend"`
}

// FlashSettings configures a short-lived flash sale auction.
type FlashSettings struct{}

// TenderSettings configures a sealed tender requiring a minimum number of
// connected bidders before any bid is admitted.
type TenderSettings struct {
	MinimumBidders int `json:"minimumBidders"`
}

func (LiveSettings) Name() KindName   { return KindLive }
func (TimedSettings) Name() KindName  { return KindTimed }
func (FlashSettings) Name() KindName  { return KindFlash }
func (TenderSettings) Name() KindName { return KindTender }

func (LiveSettings) sealed()   {}
func (TimedSettings) sealed()  {}
func (FlashSettings) sealed()  {}
func (TenderSettings) sealed() {}

// KindFromRecord rebuilds a Kind from its persisted representation: the type
// name column plus the settings JSON document.
func KindFromRecord(name string, settings []byte) (Kind, error) {
	if len(settings) == 0 {
		settings = []byte("{}")
	}
	switch KindName(name) {
	case KindLive:
		var s LiveSettings
		if err := json.Unmarshal(settings, &s); err != nil {
			return nil, errs.Wrap(err, "decode live settings")
		}
		return s, nil
	case KindTimed:
		var s TimedSettings
		if err := json.Unmarshal(settings, &s); err != nil {
			return nil, errs.Wrap(err, "decode timed settings")
		}
		return s, nil
	case KindFlash:
		return FlashSettings{}, nil
	case KindTender:
		var s TenderSettings
		if err := json.Unmarshal(settings, &s); err != nil {
			return nil, errs.Wrap(err, "decode tender settings")
		}
		return s, nil
	default:
		return nil, ErrUnknownKind
	}
}

// SettingsJSON serializes a Kind's settings payload for persistence.
func SettingsJSON(k Kind) ([]byte, error) {
	return json.Marshal(k)
}
