// Package xbe 读取 Xbox 可执行文件（.xbe）头部里的证书信息。
package xbe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotXBE 表示文件不是有效的 XBE 映像。
var ErrNotXBE = errors.New("xbe: not an XBE image")

const (
	magic = "XBEH"

	offBaseAddr = 0x104 // 映像基址
	offCertAddr = 0x118 // 证书的虚拟地址
	offTitleID  = 0x08  // 证书内 Title ID 的偏移

	headerSize = offCertAddr + 4
)

// ReadTitleID 返回 path 指向的 XBE 证书中的 Title ID。
func ReadTitleID(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return TitleID(f)
}

// TitleID 从 r 读取 Title ID。证书地址是虚拟地址，减去基址得到文件偏移。
func TitleID(r io.ReaderAt) (uint32, error) {
	var hdr [headerSize]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrNotXBE
		}
		return 0, err
	}
	if string(hdr[:len(magic)]) != magic {
		return 0, ErrNotXBE
	}

	base := binary.LittleEndian.Uint32(hdr[offBaseAddr:])
	cert := binary.LittleEndian.Uint32(hdr[offCertAddr:])
	if cert < base {
		return 0, fmt.Errorf("%w：证书地址 0x%X 低于基址 0x%X", ErrNotXBE, cert, base)
	}

	var id [4]byte
	if _, err := r.ReadAt(id[:], int64(cert-base)+offTitleID); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w：证书越过文件末尾", ErrNotXBE)
		}
		return 0, err
	}
	return binary.LittleEndian.Uint32(id[:]), nil
}

// FormatID 把 Title ID 格式化为程序库使用的唯一 ID（大写十六进制，不补零）。
func FormatID(id uint32) string {
	return fmt.Sprintf("%X", id)
}

// UniqueID 读取 path 的 Title ID 并格式化；任何失败都返回错误。
func UniqueID(path string) (string, error) {
	id, err := ReadTitleID(path)
	if err != nil {
		return "", err
	}
	return FormatID(id), nil
}
