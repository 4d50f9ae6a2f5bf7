package handler

import (
	"github.com/gofiber/fiber/v2"

	"dossierapi/internal/model"
	"dossierapi/internal/service"
)

type transitionRequest struct {
	Status string `json:"status"`
}

type officerRequest struct {
	OfficerID *int64 `json:"officer_id"`
}

type noteRequest struct {
	Notes string `json:"notes"`
}

// ListDossiers godoc
// @Summary List the caller's dossiers
// @Tags dossiers
// @Param status query string false "application status"
// @Param visa_type query string false "visa type"
// @Param limit query int false "page size (default 15, max 100)"
// @Param offset query int false "offset"
// @Success 200 {object} dossierListResponse
// @Router /dossiers [get]
func ListDossiers(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		limit, err := queryInt(c, "limit")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := queryInt(c, "offset")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), userID, service.ListDossiersQuery{
			Status:   c.Query("status"),
			VisaType: c.Query("visa_type"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(dossierListResponse{
			Data:   newDossierResources(res.Items, c.BaseURL()),
			Total:  res.Total,
			Limit:  res.Limit,
			Offset: res.Offset,
		})
	}
}

// CreateDossier godoc
// @Summary Create a dossier in draft
// @Tags dossiers
// @Accept json
// @Param body body service.CreateDossierInput true "dossier"
// @Success 201 {object} dossierResource
// @Failure 422 {object} errorPayload
// @Router /dossiers [post]
func CreateDossier(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		var in service.CreateDossierInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}

		d, err := svc.Create(c.UserContext(), userID, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newDossierResource(d, c.BaseURL()))
	}
}

// GetDossier godoc
// @Summary Show a dossier with its documents
// @Tags dossiers
// @Param id path int true "dossier id"
// @Success 200 {object} dossierResource
// @Failure 404 {object} errorPayload
// @Router /dossiers/{id} [get]
func GetDossier(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}

		d, err := svc.Get(c.UserContext(), userID, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newDossierResource(d, c.BaseURL()))
	}
}

// UpdateDossier godoc
// @Summary Partially update a dossier
// @Description application_status changes must be allowed by the lifecycle.
// @Tags dossiers
// @Accept json
// @Param id path int true "dossier id"
// @Param body body service.UpdateDossierInput true "fields to change"
// @Success 200 {object} dossierResource
// @Failure 422 {object} errorPayload
// @Router /dossiers/{id} [put]
func UpdateDossier(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}
		var in service.UpdateDossierInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}

		d, err := svc.Update(c.UserContext(), userID, id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newDossierResource(d, c.BaseURL()))
	}
}

// DeleteDossier godoc
// @Summary Delete a dossier with its documents and files
// @Tags dossiers
// @Param id path int true "dossier id"
// @Success 204
// @Router /dossiers/{id} [delete]
func DeleteDossier(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}

		if err := svc.Delete(c.UserContext(), userID, id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// TransitionDossier godoc
// @Summary Move a dossier to another application status
// @Tags dossiers
// @Accept json
// @Param id path int true "dossier id"
// @Param body body transitionRequest true "target status"
// @Success 200 {object} transitionResponse
// @Failure 422 {object} errorPayload
// @Router /dossiers/{id}/status [post]
func TransitionDossier(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}
		var in transitionRequest
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}

		d, res, err := svc.Transition(c.UserContext(), userID, id, model.ApplicationStatus(in.Status))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(transitionResponse{From: res.From, To: res.To, Dossier: newDossierResource(d, c.BaseURL())})
	}
}

// AssignOfficer godoc
// @Summary Assign or clear the reviewing officer
// @Tags dossiers
// @Accept json
// @Param id path int true "dossier id"
// @Param body body officerRequest true "officer id, null to clear"
// @Success 200 {object} dossierResource
// @Router /dossiers/{id}/officer [put]
func AssignOfficer(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}
		var in officerRequest
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}

		d, err := svc.AssignOfficer(c.UserContext(), userID, id, in.OfficerID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newDossierResource(d, c.BaseURL()))
	}
}

// AddNote godoc
// @Summary Append a timestamped note
// @Tags dossiers
// @Accept json
// @Param id path int true "dossier id"
// @Param body body noteRequest true "note text"
// @Success 200 {object} dossierResource
// @Router /dossiers/{id}/notes [post]
func AddNote(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}
		var in noteRequest
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}

		d, err := svc.AddNote(c.UserContext(), userID, id, in.Notes)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newDossierResource(d, c.BaseURL()))
	}
}

// DossierStats godoc
// @Summary Counts per status and visa type with recent activity
// @Tags dossiers
// @Success 200 {object} statsResponse
// @Router /dossiers/stats [get]
func DossierStats(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		st, err := svc.Stats(c.UserContext(), userID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newStatsResponse(st, c.BaseURL()))
	}
}

// DossierOptions godoc
// @Summary Visa types and application statuses with labels
// @Tags dossiers
// @Success 200 {object} service.DossierOptions
// @Router /dossiers/options [get]
func DossierOptions(svc service.DossierService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Options())
	}
}
