package roon

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/jtpox/discord-roon/internal/domain/zone"
)

// wireZone is a zone record as the core sends it. Pointer fields mark
// what was present in the delta.
type wireZone struct {
	ZoneID      string          `json:"zone_id"`
	DisplayName *string         `json:"display_name"`
	State       *string         `json:"state"`
	NowPlaying  *wireNowPlaying `json:"now_playing"`
	SeekPos     *int            `json:"seek_position"`
}

type wireNowPlaying struct {
	ImageKey  *string        `json:"image_key"`
	Length    *int           `json:"length"`
	SeekPos   *int           `json:"seek_position"`
	ThreeLine *wireThreeLine `json:"three_line"`
}

// wireThreeLine is the core's track/artist/album display triple.
type wireThreeLine struct {
	Line1 *string `json:"line1"`
	Line2 *string `json:"line2"`
	Line3 *string `json:"line3"`
}

// zoneBody is the payload of a zone subscription frame. A single frame
// may carry several sections.
type zoneBody struct {
	Zones            []wireZone `json:"zones"`
	ZonesChanged     []wireZone `json:"zones_changed"`
	ZonesAdded       []wireZone `json:"zones_added"`
	ZonesRemoved     []string   `json:"zones_removed"`
	ZonesSeekChanged []wireZone `json:"zones_seek_changed"`
}

// parseZoneBody converts a subscription payload into normalized events,
// one per section present.
func parseZoneBody(raw json.RawMessage) []zone.Event {
	if len(raw) == 0 {
		return nil
	}

	var body zoneBody
	if err := json.Unmarshal(raw, &body); err != nil {
		log.Warn().Err(err).Msg("Failed to parse zone payload")
		return nil
	}

	var events []zone.Event
	if len(body.Zones) > 0 {
		events = append(events, zone.Event{Kind: zone.EventSnapshot, Zones: toRecords(body.Zones)})
	}
	if len(body.ZonesChanged) > 0 {
		events = append(events, zone.Event{Kind: zone.EventChanged, Zones: toRecords(body.ZonesChanged)})
	}
	if len(body.ZonesAdded) > 0 {
		events = append(events, zone.Event{Kind: zone.EventAdded, Zones: toRecords(body.ZonesAdded)})
	}
	if len(body.ZonesRemoved) > 0 {
		events = append(events, zone.Event{Kind: zone.EventRemoved, Removed: body.ZonesRemoved})
	}
	if len(body.ZonesSeekChanged) > 0 {
		events = append(events, zone.Event{Kind: zone.EventSeekChanged, Zones: toRecords(body.ZonesSeekChanged)})
	}
	return events
}

func toRecords(wz []wireZone) []zone.Record {
	records := make([]zone.Record, 0, len(wz))
	for _, w := range wz {
		records = append(records, w.toRecord())
	}
	return records
}

func (w wireZone) toRecord() zone.Record {
	rec := zone.Record{
		ID:           w.ZoneID,
		DisplayName:  w.DisplayName,
		SeekPosition: w.SeekPos,
	}
	if w.State != nil {
		state := zone.ParseState(*w.State)
		rec.State = &state
	}
	if w.NowPlaying != nil {
		np := &zone.NowPlayingRecord{
			ImageKey:     w.NowPlaying.ImageKey,
			Length:       w.NowPlaying.Length,
			SeekPosition: w.NowPlaying.SeekPos,
		}
		if tl := w.NowPlaying.ThreeLine; tl != nil {
			np.Track = tl.Line1
			np.Artist = tl.Line2
			np.Album = tl.Line3
		}
		rec.NowPlaying = np
	}
	return rec
}
