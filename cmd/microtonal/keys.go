package main

import "github.com/hajimehoshi/ebiten/v2"

// noteKeys maps physical keys to the identifiers of keyboard.KeyRows.
var noteKeys = map[ebiten.Key]string{
	ebiten.KeyZ: "z", ebiten.KeyX: "x", ebiten.KeyC: "c", ebiten.KeyV: "v", ebiten.KeyB: "b",
	ebiten.KeyN: "n", ebiten.KeyM: "m", ebiten.KeyComma: ",", ebiten.KeyPeriod: ".", ebiten.KeySlash: "/",

	ebiten.KeyA: "a", ebiten.KeyS: "s", ebiten.KeyD: "d", ebiten.KeyF: "f", ebiten.KeyG: "g",
	ebiten.KeyH: "h", ebiten.KeyJ: "j", ebiten.KeyK: "k", ebiten.KeyL: "l", ebiten.KeySemicolon: ";",

	ebiten.KeyQ: "q", ebiten.KeyW: "w", ebiten.KeyE: "e", ebiten.KeyR: "r", ebiten.KeyT: "t",
	ebiten.KeyY: "y", ebiten.KeyU: "u", ebiten.KeyI: "i", ebiten.KeyO: "o", ebiten.KeyP: "p",

	ebiten.KeyDigit1: "1", ebiten.KeyDigit2: "2", ebiten.KeyDigit3: "3", ebiten.KeyDigit4: "4", ebiten.KeyDigit5: "5",
	ebiten.KeyDigit6: "6", ebiten.KeyDigit7: "7", ebiten.KeyDigit8: "8", ebiten.KeyDigit9: "9", ebiten.KeyDigit0: "0",
}
