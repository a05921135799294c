package hearthpwn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"hearthstats/internal/scrapers"
	"hearthstats/pkg/htmlutil"
)

const (
	report_client_collection = "client.collection"
	report_client_card_name  = "client.card-name"
)

const SessionCookie = "Auth.Session"

type CollectionCard struct {
	ExternalID int64 `json:"externalID"`
	Count      int   `json:"count"`
	IsGolden   bool  `json:"isGolden"`
}

type Collection struct {
	UpdatedDate string           `json:"updatedDate"`
	Cards       []CollectionCard `json:"cards"`
}

// Collection fetches the owned cards of the account the session belongs to.
// The site answers an invalid session with a login page rather than an error
// status, so any non json answer is an AuthError.
func (c *Client) Collection(ctx context.Context, session string) (Collection, error) {
	if session == "" {
		return Collection{}, &scrapers.AuthError{Reason: "session is not configured"}
	}

	res, err := c.collectionHttp.R().
		SetContext(ctx).
		SetCookie(&http.Cookie{Name: SessionCookie, Value: session}).
		SetHeader("accept", "application/json").
		Get("/ajax/collection")
	err = scrapers.CheckResponse(res, err)
	if err != nil {
		return Collection{}, err
	}

	// redirects are not followed, wherever they point the session was refused
	if status := res.StatusCode(); status >= 300 && status < 400 {
		return Collection{}, &scrapers.AuthError{
			Reason: fmt.Sprintf("session was redirected to %q", res.Header().Get("Location")),
		}
	}

	body := bytes.TrimSpace(res.Body())
	if len(body) == 0 || body[0] != '{' {
		return Collection{}, &scrapers.AuthError{Reason: "collection endpoint did not return json"}
	}

	var collection Collection
	err = json.Unmarshal(body, &collection)
	if err != nil {
		c.tel.ReportBroken(report_client_collection, err)
		return Collection{}, &scrapers.ParseError{Entity: "collection", Err: err}
	}
	if collection.Cards == nil {
		return Collection{}, &scrapers.AuthError{Reason: "collection response has no cards field"}
	}
	c.tel.ReportDebug(report_client_collection, collection.UpdatedDate, len(collection.Cards))
	return collection, nil
}

var cardTitle = htmlutil.Field{Selector: "#content header h2"}

// CardName reads the card name from the page of a site card id.
func (c *Client) CardName(ctx context.Context, id int64) (string, error) {
	res, err := c.get(ctx, fmt.Sprintf("/cards/%d", id), nil)
	if err != nil {
		return "", err
	}
	name, err := ParseCardName(res.Body())
	if err != nil {
		c.tel.ReportWarning(report_client_card_name, id, err)
		return "", &scrapers.ParseError{Entity: fmt.Sprintf("card %d", id), Err: err}
	}
	return name, nil
}

func ParseCardName(body []byte) (string, error) {
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return "", err
	}
	name := doc.First(cardTitle)
	if name == "" {
		return "", fmt.Errorf("no card title")
	}
	return name, nil
}
