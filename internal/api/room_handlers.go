package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/facility-scheduling-core/internal/room"
)

func listRoomsHandler(rooms *room.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		availableOnly := false
		if v := r.URL.Query().Get("available"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_query", "available must be true or false")
				return
			}
			availableOnly = b
		}

		list := rooms.List(r.Context(), availableOnly)
		out := make([]RoomResponse, 0, len(list))
		for _, rm := range list {
			out = append(out, newRoomResponse(rm))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getRoomHandler(rooms *room.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, err := rooms.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newRoomResponse(rm))
	}
}

func assignRoomHandler(rooms *room.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignRoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "id")
		if err := rooms.Assign(r.Context(), id, req.PatientID); err != nil {
			handleError(w, err)
			return
		}
		rm, err := rooms.Get(r.Context(), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newRoomResponse(rm))
	}
}

func releaseRoomHandler(rooms *room.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stay, err := rooms.Release(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, StayResponse{
			RoomID:    stay.RoomID,
			PatientID: stay.PatientID,
			Since:     stay.Since,
			Until:     stay.Until,
		})
	}
}

func setCapacityHandler(rooms *room.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetCapacityRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "id")
		if err := rooms.SetCapacity(r.Context(), id, req.Capacity); err != nil {
			handleError(w, err)
			return
		}
		rm, err := rooms.Get(r.Context(), id)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newRoomResponse(rm))
	}
}
