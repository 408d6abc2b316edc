package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/middleware"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/content"
)

func (r *Router) routeContent(api *mux.Router) {
	const res = "content"
	guarded(api, "/content", http.MethodGet, res, access.ActionRead, r.listContent)
	guarded(api, "/content", http.MethodPost, res, access.ActionCreate, r.createContent)
	guarded(api, "/content/slug/{slug}", http.MethodGet, res, access.ActionRead, r.contentBySlug)
	guarded(api, "/content/{id:[0-9]+}", http.MethodGet, res, access.ActionRead, withID(r.getContent))
	guarded(api, "/content/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateContent))
	guarded(api, "/content/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteContent))
	guarded(api, "/content/{id:[0-9]+}/{action:publish|unpublish|archive}", http.MethodPost, res, access.ActionUpdate, withID(r.contentTransition))
	guarded(api, "/content/{id:[0-9]+}/view", http.MethodPost, res, access.ActionRead, withID(r.recordView))
	guarded(api, "/content/{id:[0-9]+}/versions", http.MethodGet, res, access.ActionRead, withID(r.contentVersions))
	guarded(api, "/content/{id:[0-9]+}/versions/{version:[0-9]+}/restore", http.MethodPost, res, access.ActionUpdate, withID(r.restoreContent))

	guarded(api, "/content/categories", http.MethodGet, res, access.ActionRead, r.listCategories)
	guarded(api, "/content/categories", http.MethodPost, res, access.ActionCreate, r.createCategory)
	guarded(api, "/content/categories/{id:[0-9]+}", http.MethodPut, res, access.ActionUpdate, withID(r.updateCategory))
	guarded(api, "/content/categories/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteCategory))
	guarded(api, "/content/tags", http.MethodGet, res, access.ActionRead, r.listTags)
	guarded(api, "/content/tags", http.MethodPost, res, access.ActionCreate, r.createTag)
	guarded(api, "/content/tags/{id:[0-9]+}", http.MethodDelete, res, access.ActionDelete, withID(r.deleteTag))
}

func (r *Router) listContent(w http.ResponseWriter, req *http.Request) {
	q := queryParams(req)
	f := content.Filter{
		SearchText: q.str("searchText"),
		Status:     q.str("status"),
		CategoryID: q.uint("categoryId"),
		Tag:        q.str("tag"),
		AuthorID:   q.str("authorId"),
	}
	if q.err != nil {
		respondErr(w, req, q.err)
		return
	}
	page, err := content.NewService(r.base(req)).List(req.Context(), f, query.ParsePage(q.values, content.DefaultPageSize))
	reply(w, req, http.StatusOK, page, err)
}

func (r *Router) getContent(w http.ResponseWriter, req *http.Request, id uint) {
	c, err := content.NewService(r.base(req)).Get(req.Context(), id)
	reply(w, req, http.StatusOK, c, err)
}

func (r *Router) contentBySlug(w http.ResponseWriter, req *http.Request) {
	c, err := content.NewService(r.base(req)).GetBySlug(req.Context(), mux.Vars(req)["slug"])
	reply(w, req, http.StatusOK, c, err)
}

func (r *Router) createContent(w http.ResponseWriter, req *http.Request) {
	var in content.CreateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	in.AuthorID = userID(req)
	c, err := content.NewService(r.base(req)).Create(req.Context(), in)
	reply(w, req, http.StatusCreated, c, err)
}

func (r *Router) updateContent(w http.ResponseWriter, req *http.Request, id uint) {
	var in content.UpdateInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	in.EditorID = userID(req)
	c, err := content.NewService(r.base(req)).Update(req.Context(), id, in)
	reply(w, req, http.StatusOK, c, err)
}

func (r *Router) deleteContent(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, content.NewService(r.base(req)).Delete(req.Context(), id))
}

func (r *Router) contentTransition(w http.ResponseWriter, req *http.Request, id uint) {
	svc := content.NewService(r.base(req))
	var err error
	var out any
	switch mux.Vars(req)["action"] {
	case content.ActionPublish:
		out, err = svc.Publish(req.Context(), id)
	case content.ActionUnpublish:
		out, err = svc.Unpublish(req.Context(), id)
	case content.ActionArchive:
		out, err = svc.Archive(req.Context(), id)
	}
	reply(w, req, http.StatusOK, out, err)
}

func (r *Router) recordView(w http.ResponseWriter, req *http.Request, id uint) {
	views, err := content.NewService(r.base(req)).RecordView(req.Context(), id, content.ViewInput{
		IP:        middleware.ClientIP(req),
		UserAgent: req.UserAgent(),
	})
	reply(w, req, http.StatusOK, map[string]int64{"viewCount": views}, err)
}

func (r *Router) contentVersions(w http.ResponseWriter, req *http.Request, id uint) {
	versions, err := content.NewService(r.base(req)).Versions(req.Context(), id)
	reply(w, req, http.StatusOK, map[string]any{"data": versions}, err)
}

func (r *Router) restoreContent(w http.ResponseWriter, req *http.Request, id uint) {
	version, err := strconv.Atoi(mux.Vars(req)["version"])
	if err != nil || version <= 0 {
		respondErr(w, req, apperr.Validation("invalid version"))
		return
	}
	c, err := content.NewService(r.base(req)).Restore(req.Context(), id, version, userID(req))
	reply(w, req, http.StatusOK, c, err)
}

func (r *Router) listCategories(w http.ResponseWriter, req *http.Request) {
	cats, err := content.NewService(r.base(req)).Categories(req.Context())
	reply(w, req, http.StatusOK, map[string]any{"data": cats}, err)
}

func (r *Router) createCategory(w http.ResponseWriter, req *http.Request) {
	var in content.CategoryInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	c, err := content.NewService(r.base(req)).CreateCategory(req.Context(), in)
	reply(w, req, http.StatusCreated, c, err)
}

func (r *Router) updateCategory(w http.ResponseWriter, req *http.Request, id uint) {
	var in content.CategoryUpdate
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	c, err := content.NewService(r.base(req)).UpdateCategory(req.Context(), id, in)
	reply(w, req, http.StatusOK, c, err)
}

func (r *Router) deleteCategory(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, content.NewService(r.base(req)).DeleteCategory(req.Context(), id))
}

func (r *Router) listTags(w http.ResponseWriter, req *http.Request) {
	tags, err := content.NewService(r.base(req)).Tags(req.Context())
	reply(w, req, http.StatusOK, map[string]any{"data": tags}, err)
}

func (r *Router) createTag(w http.ResponseWriter, req *http.Request) {
	var in content.TagInput
	if err := r.decode(w, req, &in); err != nil {
		respondErr(w, req, err)
		return
	}
	t, err := content.NewService(r.base(req)).CreateTag(req.Context(), in)
	reply(w, req, http.StatusCreated, t, err)
}

func (r *Router) deleteTag(w http.ResponseWriter, req *http.Request, id uint) {
	noContent(w, req, content.NewService(r.base(req)).DeleteTag(req.Context(), id))
}
