package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"freelance/internal/apperr"
	"freelance/internal/media/sniffer"
	"freelance/internal/service"
)

const (
	avatarField = "avatar"
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 64 << 10
)

func (h HandlerSet) UploadAvatar(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	limit := h.svc.Users.MaxAvatarSize()
	tooLarge := apperr.Validation(fmt.Sprintf("avatar must be at most %d bytes", limit))
	if limit > 0 {
		if c.Request.ContentLength > limit+multipartOverhead {
			h.writeError(c, tooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}
	defer func() {
		if c.Request.MultipartForm != nil {
			_ = c.Request.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := c.Request.FormFile(avatarField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(c, tooLarge)
			return
		}
		h.writeError(c, apperr.Validation("avatar file is required"))
		return
	}
	defer file.Close()

	user, err := h.svc.Users.UploadAvatar(c.Request.Context(), actor, actor.UserID, service.AvatarUpload{
		Reader:       file,
		Size:         header.Size,
		DeclaredType: sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}
