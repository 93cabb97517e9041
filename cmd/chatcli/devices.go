package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lapor-chat/internal/imtypes"
)

// fixedPosition stands in for a GPS: a configured "lat,lng" grants location
// permission, an empty one denies it.
type fixedPosition struct {
	pos *imtypes.Location
}

func newFixedPosition(raw string) (fixedPosition, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fixedPosition{}, nil
	}
	lat, lng, ok := strings.Cut(raw, ",")
	if !ok {
		return fixedPosition{}, fmt.Errorf("position %q: want lat,lng", raw)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return fixedPosition{}, fmt.Errorf("position latitude: %w", err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return fixedPosition{}, fmt.Errorf("position longitude: %w", err)
	}
	loc := imtypes.Location{Latitude: la, Longitude: lo}
	if !loc.Valid() {
		return fixedPosition{}, fmt.Errorf("position %q out of range", raw)
	}
	return fixedPosition{pos: &loc}, nil
}

func (p fixedPosition) RequestForegroundPermission(context.Context) (bool, error) {
	return p.pos != nil, nil
}

func (p fixedPosition) CurrentPosition(context.Context) (imtypes.Location, error) {
	if p.pos == nil {
		return imtypes.Location{}, errors.New("no position configured")
	}
	return *p.pos, nil
}

// configuredPush grants notification permission when a device token is set.
type configuredPush string

func (t configuredPush) RequestPermission(context.Context) (bool, error) {
	return strings.TrimSpace(string(t)) != "", nil
}

func (t configuredPush) DeviceToken(context.Context) (string, error) {
	return strings.TrimSpace(string(t)), nil
}
