package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/collectorscorner/corner/internal/submit"
	"github.com/collectorscorner/corner/internal/upload"
	"github.com/collectorscorner/corner/internal/validate"
	"github.com/collectorscorner/corner/pkg/client"
	"github.com/collectorscorner/corner/pkg/domain"
)

const (
	fieldPublic = "ispublic"
	imageHint   = "path to an image file, at most 5MB"
)

// loadImage reads the picked file for a form check. A file that cannot be
// read is reported against the image field.
func loadImage(path string) (*domain.Upload, validate.ErrorMap) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	img, err := upload.Open(path)
	if err != nil {
		return nil, validate.ErrorMap{validate.FieldImage: "cannot read file"}
	}
	return &img, nil
}

// -- create collection --

type createCollectionModel struct {
	api    API
	fields fieldSet
	form   submit.Form
}

func newCreateCollectionModel(api API, opts Options, refresh submit.Refresh) createCollectionModel {
	return createCollectionModel{
		api: api,
		fields: newFieldSet(
			formField{key: validate.FieldTitle, label: "title", hint: "at least 3 chars"},
			formField{key: validate.FieldDescription, label: "description", hint: "at least 10 chars"},
			formField{key: validate.FieldCategory, label: "category"},
			formField{key: fieldPublic, label: "public", kind: kindToggle, value: "n"},
			formField{key: validate.FieldImage, label: "image", hint: imageHint},
		),
		form: newForm(opts, "collection created", refresh),
	}
}

func (m createCollectionModel) Update(msg tea.Msg) (createCollectionModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		var submitNow bool
		m.fields, m.form, submitNow = formKeys(m.fields, m.form, key, false)
		if submitNow {
			return m.submit()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m createCollectionModel) submit() (createCollectionModel, tea.Cmd) {
	in := validate.CollectionInput{
		Title:       strings.TrimSpace(m.fields.value(validate.FieldTitle)),
		Description: strings.TrimSpace(m.fields.value(validate.FieldDescription)),
		Category:    strings.TrimSpace(m.fields.value(validate.FieldCategory)),
		IsPublic:    m.fields.value(fieldPublic) == "y",
	}
	path := m.fields.value(validate.FieldImage)
	api := m.api

	var cmd tea.Cmd
	m.form, cmd = m.form.Submit(
		func() validate.ErrorMap {
			img, readErrs := loadImage(path)
			in.Image = img
			errs := validate.Collection(in)
			errs.Merge(readErrs)
			return errs
		},
		func() error {
			return api.CreateCollection(context.Background(), client.CreateCollectionRequest{
				Title:       in.Title,
				Description: in.Description,
				Category:    in.Category,
				IsPublic:    in.IsPublic,
				Image:       *in.Image,
			})
		},
	)
	return m, cmd
}

func (m createCollectionModel) View() string {
	return renderForm("New collection", m.fields, m.form, "")
}

// -- add card --

type addCardModel struct {
	api        API
	collection domain.Collection
	fields     fieldSet
	form       submit.Form
}

func newAddCardModel(api API, opts Options, c domain.Collection, refresh submit.Refresh) addCardModel {
	return addCardModel{
		api:        api,
		collection: c,
		fields: newFieldSet(
			formField{key: validate.FieldTitle, label: "title", hint: "at least 2 chars"},
			formField{key: validate.FieldDescription, label: "description", hint: "at least 5 chars"},
			formField{key: validate.FieldCategory, label: "category"},
			formField{key: validate.FieldRarity, label: "rarity", kind: kindRarity, value: domain.DefaultRarity},
			formField{key: validate.FieldImage, label: "image", hint: imageHint},
		),
		form: newForm(opts, "card added", refresh),
	}
}

func (m addCardModel) Update(msg tea.Msg) (addCardModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		var submitNow bool
		m.fields, m.form, submitNow = formKeys(m.fields, m.form, key, false)
		if submitNow {
			return m.submit()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m addCardModel) submit() (addCardModel, tea.Cmd) {
	in := validate.CardInput{
		Title:        strings.TrimSpace(m.fields.value(validate.FieldTitle)),
		Description:  strings.TrimSpace(m.fields.value(validate.FieldDescription)),
		Category:     strings.TrimSpace(m.fields.value(validate.FieldCategory)),
		Rarity:       m.fields.value(validate.FieldRarity),
		CollectionID: m.collection.ID,
	}
	if in.Rarity == "" {
		in.Rarity = domain.DefaultRarity
	}
	path := m.fields.value(validate.FieldImage)
	api := m.api

	var cmd tea.Cmd
	m.form, cmd = m.form.Submit(
		func() validate.ErrorMap {
			img, readErrs := loadImage(path)
			in.Image = img
			errs := validate.Card(in)
			errs.Merge(readErrs)
			return errs
		},
		func() error {
			return api.CreateCard(context.Background(), client.CreateCardRequest{
				Title:        in.Title,
				Description:  in.Description,
				Category:     in.Category,
				Rarity:       in.Rarity,
				CollectionID: in.CollectionID,
				Image:        *in.Image,
			})
		},
	)
	return m, cmd
}

func (m addCardModel) View() string {
	return renderForm(fmt.Sprintf("Add a card to %s", m.collection.Title), m.fields, m.form, "")
}
