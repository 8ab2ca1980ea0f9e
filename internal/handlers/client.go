package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"client-reports/internal/database"
	"client-reports/internal/forms"
	"client-reports/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const duplicateEmailMsg = "Client with this Email already exists."

//
// СПИСОК / ПРОСМОТР
//

func (h *Handler) ListClients(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))

	var clients []models.Client
	query := h.db.WithContext(c.Request.Context()).
		Model(&models.Client{}).
		Scopes(database.SearchClients(q))

	page, err := paginate(c, query, "clients.name ASC, clients.id ASC", &clients)
	if err != nil {
		h.listError(c, "clients", err)
		return
	}

	render(c, http.StatusOK, "client_list.html", gin.H{
		"Title":   "Clients",
		"Clients": clients,
		"Page":    page,
		"Q":       q,
	})
}

func (h *Handler) ShowClient(c *gin.Context) {
	var client models.Client
	if !find(h, c, &client, "Client") {
		return
	}

	var reports []models.Report
	if err := h.db.WithContext(c.Request.Context()).
		Where("client_id = ?", client.ID).
		Order("created_at DESC, id DESC").
		Find(&reports).Error; err != nil {
		h.serverError(c, "load client reports", err)
		return
	}

	render(c, http.StatusOK, "client_detail.html", gin.H{
		"Title":   client.Name,
		"Client":  client,
		"Reports": reports,
	})
}

//
// СОЗДАНИЕ / РЕДАКТИРОВАНИЕ
//

func (h *Handler) NewClient(c *gin.Context) {
	h.renderClientForm(c, http.StatusOK, nil, forms.ClientForm{}, nil)
}

func (h *Handler) CreateClient(c *gin.Context) {
	var form forms.ClientForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Malformed form data")
		return
	}

	errs, err := h.validateClient(c, &form, 0)
	if err != nil {
		h.serverError(c, "validate client", err)
		return
	}
	if errs.Any() {
		h.renderClientForm(c, http.StatusBadRequest, nil, form, errs)
		return
	}

	var client models.Client
	form.Apply(&client)

	err = h.db.WithContext(c.Request.Context()).Create(&client).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// между проверкой и вставкой адрес успели занять
		h.renderClientForm(c, http.StatusBadRequest, nil, form, forms.Errors{"email": {duplicateEmailMsg}})
		return
	}
	if err != nil {
		h.serverError(c, "create client", err)
		return
	}

	h.log.Info(c.Request.Context(), "client created", "id", client.ID)
	h.audit(c, models.EntityClient, client.ID, models.ActionCreate, client.Name)
	redirectWithFlash(c, "/clients/", fmt.Sprintf("Client %q was created.", client.Name))
}

func (h *Handler) EditClient(c *gin.Context) {
	var client models.Client
	if !find(h, c, &client, "Client") {
		return
	}
	h.renderClientForm(c, http.StatusOK, &client, forms.ClientFormFrom(client), nil)
}

func (h *Handler) UpdateClient(c *gin.Context) {
	var client models.Client
	if !find(h, c, &client, "Client") {
		return
	}

	var form forms.ClientForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Malformed form data")
		return
	}

	errs, err := h.validateClient(c, &form, client.ID)
	if err != nil {
		h.serverError(c, "validate client", err)
		return
	}
	if errs.Any() {
		h.renderClientForm(c, http.StatusBadRequest, &client, form, errs)
		return
	}

	err = h.db.WithContext(c.Request.Context()).
		Model(&client).
		Updates(map[string]interface{}{
			"name":  form.Name,
			"email": form.Email,
			"phone": form.Phone,
		}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		h.renderClientForm(c, http.StatusBadRequest, &client, form, forms.Errors{"email": {duplicateEmailMsg}})
		return
	}
	if err != nil {
		h.serverError(c, "update client", err)
		return
	}

	h.log.Info(c.Request.Context(), "client updated", "id", client.ID)
	h.audit(c, models.EntityClient, client.ID, models.ActionUpdate, form.Name)
	redirectWithFlash(c, "/clients/", fmt.Sprintf("Client %q was updated.", form.Name))
}

// validateClient - проверки формы плюс уникальность email без учёта регистра.
func (h *Handler) validateClient(c *gin.Context, form *forms.ClientForm, exceptID uint) (forms.Errors, error) {
	errs := form.Validate()
	if errs.Has("email") {
		return errs, nil
	}

	taken, err := database.EmailTaken(c.Request.Context(), h.db, form.Email, exceptID)
	if err != nil {
		return nil, err
	}
	if taken {
		errs.Add("email", duplicateEmailMsg)
	}
	return errs, nil
}

func (h *Handler) renderClientForm(c *gin.Context, status int, client *models.Client, form forms.ClientForm, errs forms.Errors) {
	title, action := "New client", "/clients/add/"
	if client != nil {
		title = "Edit client"
		action = fmt.Sprintf("/clients/%d/edit/", client.ID)
	}

	render(c, status, "client_form.html", gin.H{
		"Title":   title,
		"Action":  action,
		"Client":  client,
		"Form":    form.Values(),
		"Errors":  errs,
		"Widgets": forms.ClientWidgets,
	})
}

//
// УДАЛЕНИЕ
//

func (h *Handler) ConfirmDeleteClient(c *gin.Context) {
	var client models.Client
	if !find(h, c, &client, "Client") {
		return
	}

	usage, err := database.CountClientChildren(c.Request.Context(), h.db, client.ID)
	if err != nil {
		h.serverError(c, "count client children", err)
		return
	}

	render(c, http.StatusOK, "client_confirm_delete.html", gin.H{
		"Title":  "Delete client",
		"Client": client,
		"Usage":  usage,
	})
}

func (h *Handler) DeleteClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.String(http.StatusNotFound, "Client not found")
		return
	}

	ctx := c.Request.Context()
	paths, err := database.DeleteClient(ctx, h.db, id)
	if errors.Is(err, database.ErrNotFound) {
		c.String(http.StatusNotFound, "Client not found")
		return
	}
	if err != nil {
		h.serverError(c, "delete client", err)
		return
	}
	h.removeBlobs(ctx, paths)

	h.log.Info(ctx, "client deleted", "id", id, "files", len(paths))
	h.audit(c, models.EntityClient, id, models.ActionDelete, fmt.Sprintf("with %d file(s)", len(paths)))
	redirectWithFlash(c, "/clients/", "Client was deleted.")
}
