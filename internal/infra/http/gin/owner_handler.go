package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"livonto/internal/app/commands"
	listingapp "livonto/internal/app/handlers/listings"
	roomsapp "livonto/internal/app/handlers/rooms"
	domainlistings "livonto/internal/domain/listings"
)

type OwnerHandler struct {
	Commands commands.Bus
}

type createListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Address     address  `json:"address"`
	Amenities   []string `json:"amenities"`
	GenderPref  string   `json:"gender_pref"`
	Photos      []string `json:"photos"`
	Activate    bool     `json:"activate"`
}

type address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

func (h OwnerHandler) CreateListing(c *gin.Context) {
	user, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingapp.CreateListingCommand{
		CommandID:   generateCommandID(),
		OwnerID:     user.ID,
		Title:       req.Title,
		Description: req.Description,
		Address: domainlistings.Address{
			Line1:   req.Address.Line1,
			Line2:   req.Address.Line2,
			City:    req.Address.City,
			State:   req.Address.State,
			Pincode: req.Address.Pincode,
		},
		Amenities:  req.Amenities,
		GenderPref: req.GenderPref,
		Photos:     req.Photos,
		Activate:   req.Activate,
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *listingapp.CreateListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type upsertRoomRequest struct {
	RoomConfigID string `json:"room_config_id"`
	RoomType     string `json:"room_type"`
	RentPaise    int64  `json:"rent_paise"`
	TotalRooms   int    `json:"total_rooms"`
}

func (h OwnerHandler) UpsertRoom(c *gin.Context) {
	user, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req upsertRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := roomsapp.UpsertRoomConfigCommand{
		CommandID:    generateCommandID(),
		RoomConfigID: req.RoomConfigID,
		ListingID:    c.Param("id"),
		OwnerID:      user.ID,
		RoomType:     req.RoomType,
		RentPaise:    req.RentPaise,
		TotalRooms:   req.TotalRooms,
	}
	result, err := commands.Dispatch[roomsapp.UpsertRoomConfigCommand, *roomsapp.UpsertRoomConfigResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OwnerHandler) DeleteRoom(c *gin.Context) {
	user, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := roomsapp.DeleteRoomConfigCommand{
		RoomConfigID: c.Param("roomID"),
		OwnerID:      user.ID,
	}
	result, err := commands.Dispatch[roomsapp.DeleteRoomConfigCommand, *roomsapp.DeleteRoomConfigResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ OwnerHTTP = OwnerHandler{}
