package discovery

import (
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geolocation"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/markers"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/places"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

// Inbound message types sent by the map view.
const (
	MsgFocus            = "focus"
	MsgInput            = "input"
	MsgSelectSuggestion = "select_suggestion"
	MsgSearch           = "search"
	MsgCategory         = "category"
	MsgDistance         = "distance"
	MsgFindMe           = "find_me"
	MsgMarkerClick      = "marker_click"
	MsgListClick        = "list_click"
	MsgPointerOver      = "pointer_over"
	MsgPointerOut       = "pointer_out"
	MsgColorScheme      = "color_scheme"
	MsgLayout           = "layout"
	MsgVisible          = "visible"
	MsgMapReady         = "map_ready"
)

// Outbound message types pushed to the map view.
const (
	MsgState        = "state"
	MsgMarkers      = "markers"
	MsgScroll       = "scroll"
	MsgNotification = "notification"
)

// Inbound is a single event from the view. Only the fields relevant to Type
// are set.
type Inbound struct {
	Type   string   `json:"type"`
	Text   string   `json:"text,omitempty"`
	ID     string   `json:"id,omitempty"`
	Value  string   `json:"value,omitempty"`
	Meters int      `json:"meters,omitempty"`
	Mobile bool     `json:"mobile,omitempty"`
	IDs    []string `json:"ids,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Report converts a find_me event into a geolocation report.
func (in Inbound) Report() geolocation.Report {
	if in.Error != "" || in.Lat == nil || in.Lng == nil {
		return geolocation.Report{Error: in.Error}
	}
	return geolocation.Report{Coords: &models.GeoPoint{Lat: *in.Lat, Lng: *in.Lng}}
}

// Outbound is one message to the view.
type Outbound struct {
	Type         string        `json:"type"`
	State        *ViewState    `json:"state,omitempty"`
	Markers      []MarkerOp    `json:"markers,omitempty"`
	ID           string        `json:"id,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

type NotificationKind string

const (
	KindError   NotificationKind = "error"
	KindWarning NotificationKind = "warning"
)

// Notification is a non-blocking message shown to the user.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Header  string           `json:"header,omitempty"`
	Message string           `json:"message"`
}

// ViewState is everything the list, search box and mobile sheet render from.
type ViewState struct {
	Filter       models.FilterState          `json:"filter"`
	Count        int                         `json:"count"`
	Total        int                         `json:"total"`
	Summary      string                      `json:"summary"`
	Loading      bool                        `json:"loading"`
	Items        []models.DiscoverableEntity `json:"items"`
	Selected     string                      `json:"selected,omitempty"`
	Sheet        *models.DiscoverableEntity  `json:"sheet,omitempty"`
	Suggestions  []places.Suggestion         `json:"suggestions"`
	Autocomplete string                      `json:"autocomplete"`
	ShowMe       bool                        `json:"show_me"`
	ColorScheme  markers.ColorScheme         `json:"color_scheme"`
	Mobile       bool                        `json:"mobile"`
}

type MarkerOpKind string

const (
	OpCreate MarkerOpKind = "create"
	OpRemove MarkerOpKind = "remove"
	OpLabel  MarkerOpKind = "label"
	OpStyle  MarkerOpKind = "style"
	OpZIndex MarkerOpKind = "z"
)

// MarkerOp is one instruction for the browser-side map. Marker is the
// surface-issued handle, unique for the lifetime of the connection.
type MarkerOp struct {
	Op     MarkerOpKind   `json:"op"`
	Marker int64          `json:"marker"`
	Spec   *markers.Spec  `json:"spec,omitempty"`
	Label  string         `json:"label,omitempty"`
	Style  *markers.Style `json:"style,omitempty"`
	ZIndex int            `json:"z,omitempty"`
}
