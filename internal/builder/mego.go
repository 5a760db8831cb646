package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainms/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// MegoTicketContract holds the ticket registry read by MegoEvent blocks.
	MegoTicketContract = "0x0540F4fabE2AE63f1aaC7A31DA8d250d6c5CDa84"
	// DefaultMegoAPIURL serves the optional off-chain event details.
	DefaultMegoAPIURL = "https://tickets-api.mego.tools"

	megoTicketURL = "https://app.mego.tickets/event/%s/"
)

const megoABI = `[{"inputs":[{"internalType":"string","name":"_id","type":"string"}],"name":"_tickets","outputs":[{"internalType":"bool","name":"exists","type":"bool"},{"internalType":"string","name":"name","type":"string"},{"internalType":"string","name":"description","type":"string"},{"internalType":"string","name":"image","type":"string"},{"internalType":"uint16","name":"numMinted","type":"uint16"},{"internalType":"address","name":"owner","type":"address"}],"stateMutability":"view","type":"function"}]`

var (
	megoContractABI = mustParseBlockABI(megoABI)

	errEventNotFound = errors.New("Event not found")
)

// HTTPDoer is the subset of *http.Client used for the events API.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type megoTicket struct {
	Exists      bool
	Name        string
	Description string
	Image       string
	NumMinted   uint16
	Owner       common.Address
}

type megoEventDetails struct {
	Price          *float64 `json:"price"`
	Currency       string   `json:"currency"`
	Supply         int      `json:"supply"`
	Minted         int      `json:"minted"`
	EventLocation  string   `json:"event_location"`
	TimestampStart int64    `json:"timestamp_start"`
	TimestampEnd   int64    `json:"timestamp_end"`
	Description    string   `json:"event_description"`
}

type megoEventResponse struct {
	Error bool              `json:"error"`
	Event *megoEventDetails `json:"event"`
}

type megoEvent struct {
	ticket  megoTicket
	details *megoEventDetails
}

// megoClient 读取链上票务合约，并尽力补充活动 API 的信息。
type megoClient struct {
	caller chain.ContractCaller
	http   HTTPDoer
	apiURL string
}

func (m *megoClient) fetch(ctx context.Context, eventID string) (*megoEvent, error) {
	if m.caller == nil {
		return nil, errors.New("no chain connection configured")
	}
	input, err := megoContractABI.Pack("_tickets", eventID)
	if err != nil {
		return nil, err
	}
	to := common.HexToAddress(MegoTicketContract)
	out, err := m.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, err
	}
	var ticket megoTicket
	if err := megoContractABI.UnpackIntoInterface(&ticket, "_tickets", out); err != nil {
		return nil, err
	}
	if !ticket.Exists {
		return nil, errEventNotFound
	}

	event := &megoEvent{ticket: ticket}
	details, err := m.fetchDetails(ctx, eventID)
	if err != nil {
		log.Printf("[PAGE] mego event %s details unavailable: %v", eventID, err)
	} else {
		event.details = details
	}
	return event, nil
}

func (m *megoClient) fetchDetails(ctx context.Context, eventID string) (*megoEventDetails, error) {
	if m.http == nil || m.apiURL == "" {
		return nil, errors.New("events API disabled")
	}
	endpoint := strings.TrimRight(m.apiURL, "/") + "/events/get/" + url.PathEscape(eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("events API returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var payload megoEventResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Error || payload.Event == nil {
		return nil, errors.New("event missing from API response")
	}
	return payload.Event, nil
}

func megoEventComponent(client *megoClient) *Component {
	return &Component{
		Name: "MegoEvent",
		Fields: []Field{
			{Name: "eventId", Label: "Event ID", Kind: FieldText},
			alignField(),
		},
		Defaults: Props{"eventId": "0x7dBA5AB55B_049260", "align": "center"},
		Prefetch: func(ctx context.Context, props Props, _ RenderOptions, _ string) (interface{}, error) {
			eventID := strings.TrimSpace(props.String("eventId"))
			if eventID == "" {
				return nil, nil
			}
			return client.fetch(ctx, eventID)
		},
		Render: func(rc *RenderContext) (template.HTML, error) {
			eventID := strings.TrimSpace(rc.Props.String("eventId"))
			if rc.DataErr != nil {
				return errorBlock("Error: " + rc.DataErr.Error()), nil
			}
			event, ok := rc.Data.(*megoEvent)
			if !ok || event == nil {
				return noticeBlock("No event found for ID: " + eventID), nil
			}
			return executeBlock("mego-event", megoView(eventID, rc.Props.Align(), event)), nil
		},
	}
}

type megoCard struct {
	Align       string
	EventID     string
	Name        string
	Image       string
	Location    string
	Description template.HTML
	Price       string
	Minted      uint16
	Supply      string
	Dates       string
	TicketURL   string
	Owner       string
}

func megoView(eventID, align string, event *megoEvent) megoCard {
	card := megoCard{
		Align:     align,
		EventID:   eventID,
		Name:      event.ticket.Name,
		Minted:    event.ticket.NumMinted,
		Supply:    "∞",
		TicketURL: fmt.Sprintf(megoTicketURL, url.PathEscape(eventID)),
		Owner:     event.ticket.Owner.Hex(),
	}
	if event.ticket.Image != "" {
		card.Image = safeURL(event.ticket.Image)
	}

	description := event.ticket.Description
	if d := event.details; d != nil {
		card.Location = d.EventLocation
		if d.Description != "" {
			description = d.Description
		}
		if d.Price != nil {
			card.Price = strings.TrimSpace(fmt.Sprintf("%g %s", *d.Price, strings.ToUpper(d.Currency)))
		}
		if d.Supply > 0 {
			card.Supply = fmt.Sprint(d.Supply)
		}
		if d.TimestampStart > 0 {
			card.Dates = formatEventDate(d.TimestampStart)
			if d.TimestampEnd > 0 && d.TimestampEnd != d.TimestampStart {
				card.Dates += " - " + formatEventDate(d.TimestampEnd)
			}
		}
	}
	if description != "" {
		card.Description = template.HTML(sanitizer.Sanitize(description))
	}
	return card
}

func formatEventDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("Jan 2, 2006, 03:04 PM")
}

func mustParseBlockABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
