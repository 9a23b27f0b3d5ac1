//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/voxquad/api"
)

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

func convert(fn func([]byte) ([]byte, error)) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return js.ValueOf("missing model bytes")
		}
		out, err := fn(bytesFromJS(args[0]))
		if err != nil {
			return js.ValueOf(err.Error())
		}
		return bytesToJS(out)
	}
}

func voxStats(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing model bytes")
	}
	stats, err := api.VoxStats(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	b, err := json.Marshal(stats)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return js.ValueOf(string(b))
}

func packModels(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing files object")
	}
	filesObj := args[0]
	files := map[string][]byte{}
	keys := js.Global().Get("Object").Call("keys", filesObj)
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		files[k] = bytesFromJS(filesObj.Get(k))
	}
	out, err := api.PackModels(files)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func unpackModels(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing pack bytes")
	}
	files, err := api.UnpackModels(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	// object mapping names to Uint8Array
	result := js.Global().Get("Object").New()
	for name, b := range files {
		result.Set(name, bytesToJS(b))
	}
	return result
}

func main() {
	js.Global().Set("vox2glb", js.FuncOf(convert(api.VoxToGLB)))
	js.Global().Set("vox2json", js.FuncOf(convert(api.VoxToJSON)))
	js.Global().Set("voxStats", js.FuncOf(voxStats))
	js.Global().Set("packModels", js.FuncOf(packModels))
	js.Global().Set("unpackModels", js.FuncOf(unpackModels))
	select {}
}
