package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wisatamap/internal/debug"
	"wisatamap/internal/edit"
	"wisatamap/internal/engine"
	"wisatamap/internal/geo"
	"wisatamap/internal/render"
	"wisatamap/internal/view"

	"github.com/gdamore/tcell/v2"
)

// FocusTarget is the panel receiving keyboard input
type FocusTarget int

const (
	FocusMap FocusTarget = iota
	FocusList
	FocusSearch
	FocusForm
)

const (
	sidebarWidth = 32
	popupWidth   = 48
	popupHeight  = 12

	// Slow actions give up after this long
	actionTimeout = 30 * time.Second
)

// App is the main application controller
type App struct {
	screen     tcell.Screen
	engine     *engine.Engine
	mapView    *MapView
	listView   *ListView
	detailView *DetailView
	searchView *SearchView
	formView   *FormView
	focus      FocusTarget

	model   view.Model
	redraw  bool
	buttons tcell.ButtonMask

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	posted chan func()
}

// NewApp lays out the panels on an initialized screen. The projection must
// be the viewport the engine steers.
func NewApp(screen tcell.Screen, e *engine.Engine, projection *geo.Projection, basemap *geo.Basemap) *App {
	screen.SetStyle(tcell.StyleDefault)
	screen.EnableMouse()
	screen.Clear()

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		screen:     screen,
		engine:     e,
		mapView:    NewMapView(0, 0, 1, 1, projection, basemap),
		listView:   NewListView(0, 0, 1, 1),
		detailView: NewDetailView(0, 0, 1, 1),
		searchView: NewSearchView(0, 0, 1),
		formView:   NewFormView(1, 1),
		focus:      FocusMap,
		redraw:     true,
		ctx:        ctx,
		cancel:     cancel,
		posted:     make(chan func(), 16),
	}
	a.handleResize()
	return a
}

// Run starts the application main loop. It returns when the user quits or
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	input := make(chan tcell.Event)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case input <- ev:
			case <-a.ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	a.render()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-input:
			if !a.handleEvent(ev) {
				return nil // Quit requested
			}

		case fn := <-a.posted:
			fn()
			a.redraw = true

		case <-ticker.C:
			if a.engine.View.TakeDirty() != view.SurfaceNone || a.redraw {
				a.render()
			}
		}
	}
}

// async runs a blocking engine action off the event loop. The returned
// function, if any, runs back on the event loop.
func (a *App) async(fn func(ctx context.Context) func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(a.ctx, actionTimeout)
		defer cancel()
		if then := fn(ctx); then != nil {
			select {
			case a.posted <- then:
			case <-a.ctx.Done():
			}
		}
	}()
}

// settle waits for background actions and applies their results
func (a *App) settle() {
	a.wg.Wait()
	for {
		select {
		case fn := <-a.posted:
			fn()
			a.redraw = true
		default:
			return
		}
	}
}

// sync copies engine state into the panels
func (a *App) sync() {
	m := a.engine.View.Model()
	a.model = m

	switch {
	case m.Draft.FormOpen && !a.formView.IsOpen():
		a.formView.OpenCreate(a.engine.Edit.Draft().Form)
		a.focus = FocusForm
	case !m.Draft.FormOpen && a.formView.Creating():
		a.closeForm()
	}
	if a.formView.Creating() && m.Draft.Submitting {
		a.formView.SetSubmitting(true)
	}

	a.listView.Update(m.Sidebar)
	a.mapView.UpdateCategories(m.Sidebar.Categories)
	a.detailView.SetPopup(m.Popup)
	a.searchView.Update(m.SearchTerm, m.Suggestions, m.SuggestOpen)
}

// render renders the current view to the screen
func (a *App) render() {
	a.redraw = false
	a.sync()
	m := a.model

	a.screen.Clear()
	a.mapView.Draw(a.screen, m)
	a.listView.Draw(a.screen, a.mapView.Palette(), a.focus == FocusList)
	a.detailView.Draw(a.screen)
	a.searchView.Draw(a.screen, a.focus == FocusSearch)
	a.drawStatus(m)
	a.formView.Draw(a.screen)

	switch {
	case m.Notice != nil:
		drawNotice(a.screen, *m.Notice)
	case m.ConfirmDelete != "":
		drawConfirmDelete(a.screen, m.ConfirmDelete)
	}

	a.screen.Show()
}

func (a *App) drawStatus(m view.Model) {
	w, h := a.screen.Size()
	scale := fmt.Sprintf(" r=%.1fkm ", a.mapView.projection.Radius())
	n := drawText(a.screen, 0, h-1, w, " "+m.Status, render.StyleStatus)
	for x := n; x < w; x++ {
		a.screen.SetContent(x, h-1, ' ', nil, render.StyleStatus)
	}
	if sw := render.TextWidth(scale); n+sw < w {
		drawText(a.screen, w-sw, h-1, sw, scale, render.StyleStatus)
	}
}

// handleEvent processes keyboard, mouse and resize events. It returns false
// when the application should quit.
func (a *App) handleEvent(ev tcell.Event) bool {
	a.redraw = true
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev)

	case *tcell.EventMouse:
		a.handleMouse(ev)

	case *tcell.EventResize:
		a.screen.Sync()
		a.handleResize()
	}
	return true
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	e := a.engine

	// Modals swallow every key until answered
	if _, ok := e.View.Notice(); ok {
		if ev.Key() == tcell.KeyEnter || ev.Key() == tcell.KeyEscape {
			e.View.DismissNotice()
		}
		return true
	}
	if _, ok := e.Edit.PendingDelete(); ok {
		switch {
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'y' || ev.Rune() == 'Y'):
			a.async(func(ctx context.Context) func() {
				_ = e.ConfirmDelete(ctx)
				return nil
			})
		case ev.Key() == tcell.KeyEscape,
			ev.Key() == tcell.KeyRune && (ev.Rune() == 'n' || ev.Rune() == 'N'):
			e.CancelDelete()
		}
		return true
	}

	switch a.focus {
	case FocusForm:
		a.handleFormKey(ev)
		return true
	case FocusSearch:
		a.handleSearchKey(ev)
		return true
	case FocusList:
		if a.handleListKey(ev) {
			return true
		}
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		if e.CancelDraw() {
			return true
		}
		if _, ok := e.Selection.Current(); ok {
			e.ClosePopup()
			return true
		}
		return false

	case tcell.KeyTab:
		if a.focus == FocusList {
			a.focus = FocusMap
		} else {
			a.focus = FocusList
		}

	case tcell.KeyEnter:
		if e.Edit.Mode() == edit.ModeAddingArea {
			e.CompleteArea()
		}

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if e.Edit.Mode() == edit.ModeAddingArea {
			e.UndoVertex()
		}

	case tcell.KeyUp:
		a.mapView.Pan(0, -1)
	case tcell.KeyDown:
		a.mapView.Pan(0, 1)
	case tcell.KeyLeft:
		a.mapView.Pan(-1, 0)
	case tcell.KeyRight:
		a.mapView.Pan(1, 0)

	case tcell.KeyRune:
		return a.handleRune(ev.Rune())
	}
	return true
}

func (a *App) handleRune(r rune) bool {
	e := a.engine
	focused, hasFocus := e.Selection.Current()

	switch r {
	case 'q', 'Q':
		return false

	case '/':
		a.focus = FocusSearch

	case '+', '=':
		a.mapView.ZoomIn()

	case '-', '_':
		a.mapView.ZoomOut()

	case 'p':
		e.StartPoint()

	case 'a':
		e.StartArea()

	case 'u':
		if e.Edit.Mode() == edit.ModeAddingArea {
			e.UndoVertex()
		}

	case 'e':
		if f, ok := e.Store.Get(focused); hasFocus && ok {
			a.formView.OpenEdit(f.Name, f.Attributes())
			a.focus = FocusForm
		}

	case 'd':
		if hasFocus {
			e.RequestDelete(focused)
		}

	case 't':
		if hasFocus {
			a.async(func(ctx context.Context) func() {
				e.RouteTo(ctx, focused)
				return nil
			})
		}

	case 'x':
		e.ClearRoute()

	case 'R':
		debug.Log("ui_reload")
		e.View.SetStatus("Memuat ulang data...")
		a.async(func(ctx context.Context) func() {
			_ = e.Reload(ctx)
			e.View.SetStatus("")
			return nil
		})
	}
	return true
}

func (a *App) handleListKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyUp:
		a.listView.SelectPrev()
	case tcell.KeyDown:
		a.listView.SelectNext()
	case tcell.KeyEnter:
		if row, ok := a.listView.GetSelected(); ok {
			a.activate(row)
		}
	default:
		return false
	}
	return true
}

// activate applies a sidebar row: a category filters, an item focuses
func (a *App) activate(row listRow) {
	switch row.kind {
	case rowCategory:
		a.engine.SelectCategory(row.key)
	case rowItem:
		a.engine.Focus(row.key)
	}
}

func (a *App) handleSearchKey(ev *tcell.EventKey) {
	e := a.engine
	term, _, _ := e.Search.State()

	switch ev.Key() {
	case tcell.KeyEscape:
		if a.searchView.Open() {
			e.Search.Dismiss()
			return
		}
		a.focus = FocusMap

	case tcell.KeyTab:
		a.focus = FocusList

	case tcell.KeyEnter:
		if name, ok := a.searchView.Selected(); ok {
			e.ChooseSuggestion(name)
		}
		a.focus = FocusMap

	case tcell.KeyUp:
		a.searchView.SelectPrev()
	case tcell.KeyDown:
		a.searchView.SelectNext()

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(term); len(r) > 0 {
			e.Type(string(r[:len(r)-1]))
		}

	case tcell.KeyCtrlU:
		e.Type("")

	case tcell.KeyRune:
		e.Type(term + string(ev.Rune()))
	}
}

func (a *App) handleFormKey(ev *tcell.EventKey) {
	f := a.formView
	if f.Submitting() {
		return
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		if f.Creating() {
			a.engine.CancelDraw()
		}
		a.closeForm()

	case tcell.KeyTab, tcell.KeyDown:
		f.Next()
	case tcell.KeyBacktab, tcell.KeyUp:
		f.Prev()

	case tcell.KeyEnter:
		if !f.OnLastField() {
			f.Next()
			return
		}
		a.submitForm()

	case tcell.KeyCtrlS:
		a.submitForm()

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		f.Backspace()
	case tcell.KeyCtrlU:
		f.Clear()

	case tcell.KeyRune:
		f.Insert(ev.Rune())
	}
}

// submitForm saves the form in the background. A created feature closes
// the form through the draft state; an edit closes it when accepted.
func (a *App) submitForm() {
	e := a.engine
	f := a.formView
	attrs := f.Attributes()
	f.SetSubmitting(true)

	if f.Creating() {
		a.async(func(ctx context.Context) func() {
			_ = e.SubmitForm(ctx, attrs)
			return func() { a.formView.SetSubmitting(false) }
		})
		return
	}

	id := f.EditID()
	a.async(func(ctx context.Context) func() {
		err := e.UpdateFeature(ctx, id, attrs, nil)
		return func() {
			a.formView.SetSubmitting(false)
			if err == nil && a.formView.EditID() == id {
				a.closeForm()
			}
		}
	})
}

func (a *App) closeForm() {
	a.formView.Close()
	if a.focus == FocusForm {
		a.focus = FocusMap
	}
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	pressed := buttons&^a.buttons
	a.buttons = buttons

	switch {
	case buttons&tcell.WheelUp != 0 && a.mapView.Contains(x, y):
		a.mapView.ZoomIn()
		return
	case buttons&tcell.WheelDown != 0 && a.mapView.Contains(x, y):
		a.mapView.ZoomOut()
		return
	}

	if pressed&tcell.Button1 == 0 {
		return
	}
	if a.model.Notice != nil || a.model.ConfirmDelete != "" || a.formView.IsOpen() {
		return
	}

	e := a.engine
	if name, ok := a.searchView.HitTest(x, y); ok {
		e.ChooseSuggestion(name)
		a.focus = FocusMap
		return
	}
	if a.searchView.OnInput(x, y) {
		a.focus = FocusSearch
		return
	}
	if row, ok := a.listView.HitTest(x, y); ok {
		a.focus = FocusList
		a.activate(row)
		return
	}
	if a.detailView.Contains(x, y) || !a.mapView.Contains(x, y) {
		return
	}

	a.focus = FocusMap
	if e.MapClick(a.mapView.PointAt(x, y)) {
		return
	}
	if id, ok := e.FeatureAt(a.mapView.HitBound(x, y)); ok {
		e.Focus(id)
	}
}

// handleResize handles terminal resize events
func (a *App) handleResize() {
	width, height := a.screen.Size()

	sideW := min(sidebarWidth, width/3)
	mapW := max(width-sideW, 1)
	mapH := max(height-2, 1)

	a.mapView.UpdateDimensions(sideW, 1, mapW, mapH)
	a.listView.UpdateDimensions(0, 0, sideW, max(height-1, 2))
	a.searchView.UpdateDimensions(sideW, 0, mapW)
	a.formView.UpdateDimensions(width, height)

	pw := min(popupWidth, mapW)
	ph := min(popupHeight, mapH)
	a.detailView.UpdateDimensions(width-pw, 1+mapH-ph, pw, ph)
}

// cleanup performs cleanup before exit
func (a *App) cleanup() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.screen != nil {
		a.screen.Fini()
	}
}
