// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DRM_IOCTL_AMDGPU_INFO, encoded as _IOW('d', 0x45, 64) where 64 is
// sizeof(struct drm_amdgpu_info). Stable kernel UAPI.
const ioctlAMDGPUInfo = 0x40406445

const (
	amdgpuInfoSensor = 0x1D

	// sensorGPUAvgPower is AMDGPU_INFO_SENSOR_GPU_AVG_POWER, the
	// average package power in watts.
	sensorGPUAvgPower = 0x5
)

// drmAMDGPUInfoRequest mirrors struct drm_amdgpu_info: return pointer,
// return size, query id, then a 48-byte union whose first word is the
// sensor type for sensor queries.
type drmAMDGPUInfoRequest struct {
	returnPointer uint64
	returnSize    uint32
	query         uint32
	unionData     [48]byte
}

// querySensor issues one AMDGPU_INFO_SENSOR ioctl on an open render
// node and returns the 32-bit result.
func querySensor(fd uintptr, sensorType uint32) (uint32, error) {
	var result uint32

	var request drmAMDGPUInfoRequest
	request.returnPointer = uint64(uintptr(unsafe.Pointer(&result)))
	request.returnSize = 4
	request.query = amdgpuInfoSensor
	binary.LittleEndian.PutUint32(request.unionData[:4], sensorType)

	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		fd,
		uintptr(ioctlAMDGPUInfo),
		uintptr(unsafe.Pointer(&request)),
	)
	if errno != 0 {
		return 0, fmt.Errorf("amdgpu sensor query 0x%x: %w", sensorType, errno)
	}
	return result, nil
}
