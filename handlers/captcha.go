package handlers

import (
	"net/http"

	"github.com/dchest/captcha"
)

type captchaResponse struct {
	CaptchaID string `json:"captcha_id"`
	ImageURL  string `json:"image_url"`
}

// NewCaptchaHandler issues a captcha for the registration form. The image is
// served from /captcha/{id}.png.
func (h *Handler) NewCaptchaHandler(w http.ResponseWriter, r *http.Request) {
	id := captcha.New()
	sendJSON(w, http.StatusOK, captchaResponse{CaptchaID: id, ImageURL: "/captcha/" + id + ".png"})
}

func CaptchaImageHandler() http.Handler {
	return captcha.Server(captcha.StdWidth, captcha.StdHeight)
}
