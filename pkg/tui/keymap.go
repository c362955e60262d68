package tui

// Key bindings shared by both screens.
const (
	KeyQuit   = "q"
	KeyCtrlC  = "ctrl+c"
	KeyTab    = "tab"
	KeyEnter  = "enter"
	KeyEsc    = "esc"
	KeyUp     = "up"
	KeyDown   = "down"
	KeyJ      = "j"
	KeyK      = "k"
	KeySpace  = " "
	KeyMute   = "m"
	KeyEnd    = "e"
	KeyStart  = "c"
	KeyAdd    = "a"
	KeyDelete = "d"
	KeyEdit   = "e"
	KeyClear  = "x"
	KeyVoice  = "v"
	KeyPush   = "s"
)
